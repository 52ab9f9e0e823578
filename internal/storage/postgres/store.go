package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // registers the "postgres" driver

	interfaces "github.com/sheikh-saqib/idea-funding-ledger/internal/interfaces" // interface CampaignStore
	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id           BIGINT PRIMARY KEY,
	creator      TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	goal_amount  BIGINT NOT NULL CHECK (goal_amount > 0),
	funds_raised BIGINT NOT NULL DEFAULT 0 CHECK (funds_raised >= 0),
	state        TEXT NOT NULL,
	version      BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS contributions (
	campaign_id BIGINT NOT NULL REFERENCES campaigns(id),
	contributor TEXT NOT NULL,
	amount      BIGINT NOT NULL CHECK (amount > 0),
	PRIMARY KEY (campaign_id, contributor)
);

CREATE TABLE IF NOT EXISTS payouts (
	id          TEXT PRIMARY KEY,
	campaign_id BIGINT NOT NULL UNIQUE REFERENCES campaigns(id),
	creator     TEXT NOT NULL,
	amount      BIGINT NOT NULL,
	status      TEXT NOT NULL,
	attempts    INT NOT NULL DEFAULT 0,
	last_error  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	settled_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS campaign_ids (
	singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	last_id   BIGINT NOT NULL
);

INSERT INTO campaign_ids (singleton, last_id)
SELECT TRUE, COALESCE(MAX(id), 0) FROM campaigns
ON CONFLICT (singleton) DO NOTHING;`

const campaignColumns = `id, creator, title, description, goal_amount, funds_raised, state, version, created_at, updated_at`

const payoutColumns = `id, campaign_id, creator, amount, status, attempts, last_error, created_at, settled_at`

// PostgresCampaignStore keeps campaigns in Postgres. Each mutation runs in
// its own transaction holding a row lock on the campaign, which serializes
// writers of one campaign and leaves other campaigns untouched.
type PostgresCampaignStore struct {
	db *sql.DB
}

func NewPostgresCampaignStore(db *sql.DB) *PostgresCampaignStore {
	return &PostgresCampaignStore{
		db: db,
	}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the ledger tables when they do not exist yet.
func (p *PostgresCampaignStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *PostgresCampaignStore) Create(ctx context.Context, creator, title, description string, goalAmount int64) (models.Campaign, error) {
	if err := storage.ValidateCampaign(creator, title, description, goalAmount); err != nil {
		return models.Campaign{}, err
	}

	var c models.Campaign
	err := p.withTx(ctx, func(dbTx *sql.Tx) error {
		// The counter row lock serializes creates only. A rolled back insert
		// also rolls back the increment, so ids stay gap-free.
		var id int64
		if err := dbTx.QueryRowContext(ctx, `UPDATE campaign_ids SET last_id = last_id + 1 RETURNING last_id`).Scan(&id); err != nil {
			return fmt.Errorf("next id: %w", err)
		}

		const query = `INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, 0, $6, 1, $7, $7)
		RETURNING ` + campaignColumns

		now := time.Now().UTC()
		row := dbTx.QueryRowContext(ctx, query, id, creator, title, description, goalAmount, string(models.CampaignOpen), now)
		var err error
		c, err = scanCampaign(row)
		return err
	})
	if err != nil {
		return models.Campaign{}, fmt.Errorf("create idea: %w", err)
	}
	return c, nil
}

func (p *PostgresCampaignStore) Get(ctx context.Context, id int64) (models.Campaign, error) {
	const query = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Campaign{}, fmt.Errorf("idea %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Campaign{}, err
	}
	return c, nil
}

func (p *PostgresCampaignStore) List(ctx context.Context) ([]models.Campaign, error) {
	const query = `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (p *PostgresCampaignStore) Contributions(ctx context.Context, id int64) ([]models.Contribution, error) {
	if _, err := p.Get(ctx, id); err != nil {
		return nil, err
	}

	const query = `SELECT campaign_id, contributor, amount FROM contributions
	WHERE campaign_id = $1 ORDER BY contributor`

	rows, err := p.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	entries := []models.Contribution{}
	for rows.Next() {
		var entry models.Contribution
		if err := rows.Scan(&entry.CampaignID, &entry.Contributor, &entry.Amount); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (p *PostgresCampaignStore) ApplyContribution(ctx context.Context, id int64, contributor string, amount int64) (models.ContributionResult, error) {
	var result models.ContributionResult
	err := p.withTx(ctx, func(dbTx *sql.Tx) error {
		c, err := lockCampaign(ctx, dbTx, id)
		if err != nil {
			return err
		}
		if c.State != models.CampaignOpen {
			return fmt.Errorf("idea %d: %w", id, models.ErrAlreadyFunded)
		}
		if err := storage.ValidateContribution(contributor, amount); err != nil {
			return err
		}
		if c.FundsRaised > math.MaxInt64-amount {
			return fmt.Errorf("amount overflows raised funds: %w", models.ErrInvalidInput)
		}

		c.FundsRaised += amount
		if c.FundsRaised >= c.GoalAmount {
			c.State = models.CampaignFunded
			result.JustFunded = true
		}
		c.Version++
		c.UpdatedAt = time.Now().UTC()

		const upsert = `INSERT INTO contributions (campaign_id, contributor, amount) VALUES ($1, $2, $3)
		ON CONFLICT (campaign_id, contributor) DO UPDATE SET amount = contributions.amount + EXCLUDED.amount`
		if _, err := dbTx.ExecContext(ctx, upsert, id, contributor, amount); err != nil {
			return err
		}
		if err := updateCampaign(ctx, dbTx, c); err != nil {
			return err
		}
		result.Campaign = c
		return nil
	})
	if err != nil {
		return models.ContributionResult{}, err
	}
	return result, nil
}

func (p *PostgresCampaignStore) ApplyWithdrawal(ctx context.Context, id int64, requester string) (models.Payout, models.Campaign, error) {
	var (
		payout   models.Payout
		campaign models.Campaign
	)
	err := p.withTx(ctx, func(dbTx *sql.Tx) error {
		c, err := lockCampaign(ctx, dbTx, id)
		if err != nil {
			return err
		}
		if requester != c.Creator {
			return fmt.Errorf("idea %d: %w", id, models.ErrUnauthorized)
		}
		if c.State == models.CampaignOpen {
			return fmt.Errorf("idea %d: %w", id, models.ErrNotFunded)
		}
		if c.State == models.CampaignWithdrawn || c.FundsRaised == 0 {
			return fmt.Errorf("idea %d: %w", id, models.ErrAlreadyWithdrawn)
		}

		now := time.Now().UTC()
		payout = models.Payout{
			ID:         uuid.NewString(),
			CampaignID: id,
			Creator:    c.Creator,
			Amount:     c.FundsRaised,
			Status:     models.PayoutPending,
			CreatedAt:  now,
		}
		const insert = `INSERT INTO payouts (id, campaign_id, creator, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := dbTx.ExecContext(ctx, insert, payout.ID, payout.CampaignID, payout.Creator, payout.Amount, string(payout.Status), payout.CreatedAt); err != nil {
			return err
		}

		c.FundsRaised = 0
		c.State = models.CampaignWithdrawn
		c.Version++
		c.UpdatedAt = now
		if err := updateCampaign(ctx, dbTx, c); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return models.Payout{}, models.Campaign{}, err
	}
	return payout, campaign, nil
}

func (p *PostgresCampaignStore) GetPayout(ctx context.Context, campaignID int64) (models.Payout, error) {
	if _, err := p.Get(ctx, campaignID); err != nil {
		return models.Payout{}, err
	}

	const query = `SELECT ` + payoutColumns + ` FROM payouts WHERE campaign_id = $1`
	payout, err := scanPayout(p.db.QueryRowContext(ctx, query, campaignID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payout{}, fmt.Errorf("idea %d: %w", campaignID, models.ErrPayoutNotFound)
	}
	return payout, err
}

func (p *PostgresCampaignStore) RecordPayoutAttempt(ctx context.Context, campaignID int64, transferErr error) (models.Payout, error) {
	var payout models.Payout
	err := p.withTx(ctx, func(dbTx *sql.Tx) error {
		if _, err := lockCampaign(ctx, dbTx, campaignID); err != nil {
			return err
		}

		const query = `SELECT ` + payoutColumns + ` FROM payouts WHERE campaign_id = $1`
		current, err := scanPayout(dbTx.QueryRowContext(ctx, query, campaignID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("idea %d: %w", campaignID, models.ErrPayoutNotFound)
		}
		if err != nil {
			return err
		}
		if current.Settled() {
			payout = current
			return nil
		}

		current.Attempts++
		if transferErr != nil {
			current.LastError = transferErr.Error()
		} else {
			settledAt := time.Now().UTC()
			current.Status = models.PayoutSettled
			current.LastError = ""
			current.SettledAt = &settledAt
		}

		const update = `UPDATE payouts SET status = $2, attempts = $3, last_error = $4, settled_at = $5 WHERE id = $1`
		var settledAt sql.NullTime
		if current.SettledAt != nil {
			settledAt = sql.NullTime{Time: *current.SettledAt, Valid: true}
		}
		if _, err := dbTx.ExecContext(ctx, update, current.ID, string(current.Status), current.Attempts, current.LastError, settledAt); err != nil {
			return err
		}
		payout = current
		return nil
	})
	if err != nil {
		return models.Payout{}, err
	}
	return payout, nil
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (p *PostgresCampaignStore) withTx(ctx context.Context, fn func(dbTx *sql.Tx) error) error {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(dbTx); err != nil {
		dbTx.Rollback()
		return err
	}
	return dbTx.Commit()
}

func lockCampaign(ctx context.Context, dbTx *sql.Tx, id int64) (models.Campaign, error) {
	const query = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 FOR UPDATE`

	c, err := scanCampaign(dbTx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Campaign{}, fmt.Errorf("idea %d: %w", id, models.ErrNotFound)
	}
	return c, err
}

func updateCampaign(ctx context.Context, dbTx *sql.Tx, c models.Campaign) error {
	const query = `UPDATE campaigns SET funds_raised = $2, state = $3, version = $4, updated_at = $5 WHERE id = $1`

	_, err := dbTx.ExecContext(ctx, query, c.ID, c.FundsRaised, string(c.State), c.Version, c.UpdatedAt)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row scanner) (models.Campaign, error) {
	var (
		c     models.Campaign
		state string
	)
	err := row.Scan(
		&c.ID,
		&c.Creator,
		&c.Title,
		&c.Description,
		&c.GoalAmount,
		&c.FundsRaised,
		&state,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	c.State = models.CampaignState(state)
	return c, err
}

func scanPayout(row scanner) (models.Payout, error) {
	var (
		p         models.Payout
		status    string
		settledAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.CampaignID, &p.Creator, &p.Amount, &status, &p.Attempts, &p.LastError, &p.CreatedAt, &settledAt)
	p.Status = models.PayoutStatus(status)
	if settledAt.Valid {
		t := settledAt.Time
		p.SettledAt = &t
	}
	return p, err
}

var _ interfaces.CampaignStore = (*PostgresCampaignStore)(nil)
