package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"fmt"
	"math"
	"sort"
	"sync" // standard Go package for concurrency primitives like Mutex
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/idea-funding-ledger/internal/interfaces" // interface CampaignStore
	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/storage"
)

// campaignRecord is the unit of mutual exclusion: one per campaign id.
type campaignRecord struct {
	mu            sync.Mutex
	campaign      models.Campaign
	contributions map[string]int64 // contributor -> cumulative amount
	payout        *models.Payout
}

// MemoryCampaignStore is an in-memory implementation of interfaces.CampaignStore.
// The store-level lock only guards the id sequence and the record slice;
// reads and writes of a campaign take that campaign's own mutex.
type MemoryCampaignStore struct {
	mu        sync.RWMutex
	campaigns []*campaignRecord // campaigns[i] has id i+1
	now       func() time.Time
}

// NewMemoryCampaignStore creates and returns an empty store
func NewMemoryCampaignStore() *MemoryCampaignStore {
	return &MemoryCampaignStore{
		campaigns: make([]*campaignRecord, 0),
		now:       time.Now,
	}
}

func (m *MemoryCampaignStore) Create(ctx context.Context, creator, title, description string, goalAmount int64) (models.Campaign, error) {
	if err := storage.ValidateCampaign(creator, title, description, goalAmount); err != nil {
		return models.Campaign{}, err
	}

	m.mu.Lock()         // id assignment and append must happen together
	defer m.mu.Unlock() // unlock automatically when function exits

	now := m.now()
	c := models.Campaign{
		ID:          int64(len(m.campaigns)) + 1,
		Creator:     creator,
		Title:       title,
		Description: description,
		GoalAmount:  goalAmount,
		State:       models.CampaignOpen,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.campaigns = append(m.campaigns, &campaignRecord{
		campaign:      c,
		contributions: make(map[string]int64),
	})
	return c, nil
}

func (m *MemoryCampaignStore) Get(ctx context.Context, id int64) (models.Campaign, error) {
	rec, err := m.record(id)
	if err != nil {
		return models.Campaign{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.campaign, nil
}

// List returns a snapshot of every campaign ordered by id.
func (m *MemoryCampaignStore) List(ctx context.Context) ([]models.Campaign, error) {
	m.mu.RLock()
	records := make([]*campaignRecord, len(m.campaigns))
	copy(records, m.campaigns)
	m.mu.RUnlock()

	out := make([]models.Campaign, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		out = append(out, rec.campaign)
		rec.mu.Unlock()
	}
	return out, nil
}

func (m *MemoryCampaignStore) Contributions(ctx context.Context, id int64) ([]models.Contribution, error) {
	rec, err := m.record(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	out := make([]models.Contribution, 0, len(rec.contributions))
	for contributor, amount := range rec.contributions {
		out = append(out, models.Contribution{CampaignID: id, Contributor: contributor, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contributor < out[j].Contributor })
	return out, nil
}

// ApplyContribution adds amount to the campaign and the contributor's entry.
// The goal check and the open -> funded flip happen under the campaign lock,
// so exactly one contribution observes JustFunded.
func (m *MemoryCampaignStore) ApplyContribution(ctx context.Context, id int64, contributor string, amount int64) (models.ContributionResult, error) {
	rec, err := m.record(id)
	if err != nil {
		return models.ContributionResult{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.campaign.State != models.CampaignOpen {
		return models.ContributionResult{}, fmt.Errorf("idea %d: %w", id, models.ErrAlreadyFunded)
	}
	if err := storage.ValidateContribution(contributor, amount); err != nil {
		return models.ContributionResult{}, err
	}
	if rec.campaign.FundsRaised > math.MaxInt64-amount {
		return models.ContributionResult{}, fmt.Errorf("amount overflows raised funds: %w", models.ErrInvalidInput)
	}

	rec.campaign.FundsRaised += amount
	rec.contributions[contributor] += amount

	justFunded := false
	if rec.campaign.FundsRaised >= rec.campaign.GoalAmount {
		rec.campaign.State = models.CampaignFunded
		justFunded = true
	}
	rec.campaign.Version++
	rec.campaign.UpdatedAt = m.now()

	return models.ContributionResult{Campaign: rec.campaign, JustFunded: justFunded}, nil
}

// ApplyWithdrawal moves the whole raised balance into a pending payout.
// Only the first authorized caller gets a payout; everyone after sees
// ErrAlreadyWithdrawn.
func (m *MemoryCampaignStore) ApplyWithdrawal(ctx context.Context, id int64, requester string) (models.Payout, models.Campaign, error) {
	rec, err := m.record(id)
	if err != nil {
		return models.Payout{}, models.Campaign{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	c := &rec.campaign
	if requester != c.Creator {
		return models.Payout{}, models.Campaign{}, fmt.Errorf("idea %d: %w", id, models.ErrUnauthorized)
	}
	if c.State == models.CampaignOpen {
		return models.Payout{}, models.Campaign{}, fmt.Errorf("idea %d: %w", id, models.ErrNotFunded)
	}
	if c.State == models.CampaignWithdrawn || c.FundsRaised == 0 {
		return models.Payout{}, models.Campaign{}, fmt.Errorf("idea %d: %w", id, models.ErrAlreadyWithdrawn)
	}

	now := m.now()
	p := models.Payout{
		ID:         uuid.NewString(),
		CampaignID: id,
		Creator:    c.Creator,
		Amount:     c.FundsRaised,
		Status:     models.PayoutPending,
		CreatedAt:  now,
	}
	rec.payout = &p

	c.FundsRaised = 0
	c.State = models.CampaignWithdrawn
	c.Version++
	c.UpdatedAt = now

	return p, *c, nil
}

func (m *MemoryCampaignStore) GetPayout(ctx context.Context, campaignID int64) (models.Payout, error) {
	rec, err := m.record(campaignID)
	if err != nil {
		return models.Payout{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.payout == nil {
		return models.Payout{}, fmt.Errorf("idea %d: %w", campaignID, models.ErrPayoutNotFound)
	}
	return *rec.payout, nil
}

func (m *MemoryCampaignStore) RecordPayoutAttempt(ctx context.Context, campaignID int64, transferErr error) (models.Payout, error) {
	rec, err := m.record(campaignID)
	if err != nil {
		return models.Payout{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	p := rec.payout
	if p == nil {
		return models.Payout{}, fmt.Errorf("idea %d: %w", campaignID, models.ErrPayoutNotFound)
	}
	if p.Settled() {
		return *p, nil
	}

	p.Attempts++
	if transferErr != nil {
		p.LastError = transferErr.Error()
		return *p, nil
	}
	settledAt := m.now()
	p.Status = models.PayoutSettled
	p.LastError = ""
	p.SettledAt = &settledAt
	return *p, nil
}

// record looks up a campaign by id; ids outside [1, count] are not found.
func (m *MemoryCampaignStore) record(id int64) (*campaignRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id < 1 || id > int64(len(m.campaigns)) {
		return nil, fmt.Errorf("idea %d: %w", id, models.ErrNotFound)
	}
	return m.campaigns[id-1], nil
}

// Compile-time check: ensure MemoryCampaignStore implements CampaignStore interface
var _ interfaces.CampaignStore = (*MemoryCampaignStore)(nil)
