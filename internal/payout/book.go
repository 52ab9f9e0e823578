package payout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/idea-funding-ledger/internal/interfaces"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
)

// Entry is one side of a posted payout.
type Entry struct {
	ID        string          `json:"id"`
	PayoutID  string          `json:"payout_id"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"` // major units, negative for debits
	CreatedAt time.Time       `json:"created_at"`
}

// Book is the double-entry account book that receives withdrawn funds.
// Every payout debits the idea's clearing account and credits the creator.
type Book struct {
	scale int32 // minor unit digits

	mu      sync.Mutex // protects entries and posted
	entries []Entry
	posted  map[string]struct{} // payout ids already booked

	mapMu sync.Mutex             // protects muMap itself
	muMap map[string]*sync.Mutex // per-account locks
	now   func() time.Time
}

func NewBook(scale int32) *Book {
	return &Book{
		scale:  scale,
		posted: make(map[string]struct{}),
		muMap:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

// ClearingAccount is the ledger side of an idea's payouts. Contributions are
// held by the campaign store, not the book, so its balance is the negated
// total paid out for the idea.
func ClearingAccount(ideaID int64) string {
	return fmt.Sprintf("clearing:idea:%d", ideaID)
}

// ToMajor converts an amount in minor units into major units.
func (b *Book) ToMajor(amount int64) decimal.Decimal {
	return decimal.New(amount, -b.scale)
}

func (b *Book) accountLock(accountID string) *sync.Mutex {
	b.mapMu.Lock()
	defer b.mapMu.Unlock()

	if _, exists := b.muMap[accountID]; !exists {
		b.muMap[accountID] = &sync.Mutex{}
	}
	return b.muMap[accountID]
}

// Transfer books the payout. Booking the same payout id twice is a no-op.
func (b *Book) Transfer(ctx context.Context, p models.Payout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Amount <= 0 {
		return errors.New("payout amount must be positive")
	}
	if p.Creator == "" {
		return errors.New("payout has no recipient")
	}

	from := ClearingAccount(p.CampaignID)
	to := p.Creator
	if from == to {
		return fmt.Errorf("recipient %q collides with clearing account", to)
	}

	debitMutex := b.accountLock(from)
	creditMutex := b.accountLock(to)

	// Lock in order to avoid deadlocks
	if from < to {
		debitMutex.Lock()
		creditMutex.Lock()
	} else {
		creditMutex.Lock()
		debitMutex.Lock()
	}
	defer debitMutex.Unlock()
	defer creditMutex.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, done := b.posted[p.ID]; done {
		return nil
	}

	amount := b.ToMajor(p.Amount)
	now := b.now()
	b.entries = append(b.entries,
		Entry{ID: p.ID + "-debit", PayoutID: p.ID, AccountID: from, Amount: amount.Neg(), CreatedAt: now},
		Entry{ID: p.ID + "-credit", PayoutID: p.ID, AccountID: to, Amount: amount, CreatedAt: now},
	)
	b.posted[p.ID] = struct{}{}
	return nil
}

// Balance sums every entry booked on accountID.
func (b *Book) Balance(accountID string) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	balance := decimal.Zero
	for _, e := range b.entries {
		if e.AccountID == accountID {
			balance = balance.Add(e.Amount)
		}
	}
	return balance
}

func (b *Book) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	copied := make([]Entry, len(b.entries))
	copy(copied, b.entries)
	return copied
}

var _ interfaces.FundsTransferer = (*Book)(nil)
