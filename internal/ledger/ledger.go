package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	interfaces "github.com/sheikh-saqib/idea-funding-ledger/internal/interfaces"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/logger"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/models/events"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/storage"
)

var (
	// ErrPayoutPending means the withdrawal committed but the transfer to the
	// creator failed; the funds stay in the pending payout until RetryPayout.
	ErrPayoutPending = errors.New("payout pending")
	// ErrEventNotPublished means the mutation committed but an event sink
	// rejected the resulting event.
	ErrEventNotPublished = errors.New("event not published")
)

// Ledger orchestrates submit, fund and withdraw against a CampaignStore.
// It keeps no campaign state of its own; all atomicity comes from the store.
// The ledger only orders publishing: a campaign's events reach the sink in
// the order its mutations committed.
type Ledger struct {
	store     interfaces.CampaignStore
	publisher interfaces.EventPublisher
	transfers interfaces.FundsTransferer
	admin     string
	log       *logger.Logger
	now       func() time.Time

	muMap map[int64]*sync.Mutex // held from mutation until its events are published
	mapMu sync.Mutex            // protects muMap and announced
	// submitMu is held by SubmitIdea until IdeaSubmitted is published, so no
	// event of a new idea can overtake its announcement.
	submitMu  sync.RWMutex
	announced map[int64]bool
}

// NewLedger wires the engine. admin is the administrative identity recorded
// at startup; no core operation requires it.
func NewLedger(store interfaces.CampaignStore, publisher interfaces.EventPublisher, transfers interfaces.FundsTransferer, admin string, log *logger.Logger) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		transfers: transfers,
		admin:     admin,
		log:       log.With("component", "ledger"),
		now:       time.Now,
		muMap:     make(map[int64]*sync.Mutex),
		announced: make(map[int64]bool),
	}
}

func (l *Ledger) getIdeaLock(id int64) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[id]; !exists {
		l.muMap[id] = &sync.Mutex{}
	}
	return l.muMap[id]
}

// awaitAnnouncement blocks until any in-flight SubmitIdea has published.
// Callers must already have committed a mutation on id.
func (l *Ledger) awaitAnnouncement(id int64) {
	l.mapMu.Lock()
	done := l.announced[id]
	l.mapMu.Unlock()
	if done {
		return
	}

	l.submitMu.RLock()
	l.submitMu.RUnlock()

	l.mapMu.Lock()
	l.announced[id] = true
	l.mapMu.Unlock()
}

func (l *Ledger) Admin() string {
	return l.admin
}

// SubmitIdea registers a new idea and returns its id.
func (l *Ledger) SubmitIdea(ctx context.Context, creator, title, description string, goalAmount int64) (int64, error) {
	if err := storage.ValidateCampaign(creator, title, description, goalAmount); err != nil {
		return 0, err
	}

	l.submitMu.Lock()
	defer l.submitMu.Unlock()

	c, err := l.store.Create(ctx, creator, title, description, goalAmount)
	if err != nil {
		return 0, err
	}
	l.log.Info("idea submitted", "idea_id", c.ID, "creator", creator, "goal_amount", goalAmount)

	err = l.publish(ctx, events.IdeaSubmitted{
		ID:         c.ID,
		Creator:    c.Creator,
		Title:      c.Title,
		GoalAmount: c.GoalAmount,
		Sequence:   c.Version,
		OccurredAt: l.now(),
	})

	l.mapMu.Lock()
	l.announced[c.ID] = true
	l.mapMu.Unlock()
	return c.ID, err
}

// FundIdea pledges amount from funder. The contribution that reaches the
// goal also emits FundingCompleted, always after its IdeaFunded.
func (l *Ledger) FundIdea(ctx context.Context, id int64, funder string, amount int64) (models.Campaign, error) {
	ideaMutex := l.getIdeaLock(id)
	ideaMutex.Lock()
	defer ideaMutex.Unlock()

	res, err := l.store.ApplyContribution(ctx, id, funder, amount)
	if err != nil {
		return models.Campaign{}, err
	}
	l.awaitAnnouncement(id)
	c := res.Campaign
	l.log.Info("idea funded", "idea_id", id, "funder", funder, "amount", amount, "funds_raised", c.FundsRaised)

	now := l.now()
	errs := []error{l.publish(ctx, events.IdeaFunded{
		ID:         id,
		Funder:     funder,
		Amount:     amount,
		Sequence:   c.Version,
		OccurredAt: now,
	})}
	if res.JustFunded {
		l.log.Info("funding completed", "idea_id", id, "total_funds", c.FundsRaised)
		errs = append(errs, l.publish(ctx, events.FundingCompleted{
			ID:         id,
			TotalFunds: c.FundsRaised,
			Sequence:   c.Version,
			OccurredAt: now,
		}))
	}
	return c, errors.Join(errs...)
}

// WithdrawFunds commits the withdrawal, then transfers the payout to the
// creator. A failed transfer leaves the payout pending and returns
// ErrPayoutPending; the withdrawal itself stays committed.
func (l *Ledger) WithdrawFunds(ctx context.Context, id int64, requester string) (models.Payout, error) {
	payout, pubErr := l.commitWithdrawal(ctx, id, requester)
	if payout.ID == "" {
		return models.Payout{}, pubErr
	}

	// The transfer runs outside the idea lock.
	settled, err := l.settle(ctx, payout)
	return settled, errors.Join(pubErr, err)
}

// commitWithdrawal applies the withdrawal and publishes FundsWithdrawn while
// holding the idea lock. An empty payout means nothing was committed;
// otherwise the error can only come from publishing.
func (l *Ledger) commitWithdrawal(ctx context.Context, id int64, requester string) (models.Payout, error) {
	ideaMutex := l.getIdeaLock(id)
	ideaMutex.Lock()
	defer ideaMutex.Unlock()

	payout, c, err := l.store.ApplyWithdrawal(ctx, id, requester)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			l.log.Warn("withdrawal rejected", "idea_id", id, "requester", requester)
		}
		return models.Payout{}, err
	}
	l.awaitAnnouncement(id)
	l.log.Info("funds withdrawn", "idea_id", id, "creator", c.Creator, "amount", payout.Amount, "payout_id", payout.ID)

	pubErr := l.publish(ctx, events.FundsWithdrawn{
		ID:         id,
		Creator:    c.Creator,
		Amount:     payout.Amount,
		PayoutID:   payout.ID,
		Sequence:   c.Version,
		OccurredAt: l.now(),
	})
	return payout, pubErr
}

// RetryPayout re-attempts the transfer of a pending payout. Only the
// creator or the admin may retry. Settled payouts are returned unchanged.
func (l *Ledger) RetryPayout(ctx context.Context, id int64, requester string) (models.Payout, error) {
	c, err := l.store.Get(ctx, id)
	if err != nil {
		return models.Payout{}, err
	}
	if requester != c.Creator && requester != l.admin {
		return models.Payout{}, fmt.Errorf("idea %d: %w", id, models.ErrUnauthorized)
	}

	payout, err := l.store.GetPayout(ctx, id)
	if err != nil {
		return models.Payout{}, err
	}
	if payout.Settled() {
		return payout, nil
	}
	return l.settle(ctx, payout)
}

func (l *Ledger) GetIdea(ctx context.Context, id int64) (models.Campaign, error) {
	return l.store.Get(ctx, id)
}

func (l *Ledger) ListIdeas(ctx context.Context) ([]models.Campaign, error) {
	return l.store.List(ctx)
}

func (l *Ledger) Contributions(ctx context.Context, id int64) ([]models.Contribution, error) {
	return l.store.Contributions(ctx, id)
}

func (l *Ledger) GetPayout(ctx context.Context, id int64) (models.Payout, error) {
	return l.store.GetPayout(ctx, id)
}

func (l *Ledger) settle(ctx context.Context, payout models.Payout) (models.Payout, error) {
	transferErr := l.transfers.Transfer(ctx, payout)

	// The attempt is recorded even when the caller has gone away.
	recorded, err := l.store.RecordPayoutAttempt(context.WithoutCancel(ctx), payout.CampaignID, transferErr)
	if err != nil {
		l.log.Error("recording payout attempt failed", "idea_id", payout.CampaignID, "payout_id", payout.ID, "error", err)
		return payout, fmt.Errorf("record payout attempt: %w", err)
	}

	if transferErr != nil {
		l.log.Error("payout transfer failed", "idea_id", payout.CampaignID, "payout_id", payout.ID, "attempts", recorded.Attempts, "error", transferErr)
		return recorded, fmt.Errorf("idea %d: %w: %w", payout.CampaignID, ErrPayoutPending, transferErr)
	}
	l.log.Info("payout settled", "idea_id", payout.CampaignID, "payout_id", payout.ID, "amount", recorded.Amount)
	return recorded, nil
}

func (l *Ledger) publish(ctx context.Context, event events.Event) error {
	// Events of committed mutations are published even if the caller cancelled.
	if err := l.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		l.log.Error("publish failed", "event_type", event.EventType(), "idea_id", event.IdeaID(), "error", err)
		return fmt.Errorf("%s for idea %d: %w: %w", event.EventType(), event.IdeaID(), ErrEventNotPublished, err)
	}
	return nil
}
