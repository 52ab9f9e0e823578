package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
)

func TestCreate_AssignsSequentialIDs(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		c, err := s.Create(ctx, "creator", "t", "d", 10)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if c.ID != want {
			t.Fatalf("expected id %d, got %d", want, c.ID)
		}
		if c.State != models.CampaignOpen || c.FundsRaised != 0 || c.Version != 1 {
			t.Fatalf("unexpected new campaign %+v", c)
		}
	}
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()

	cases := []struct {
		name                        string
		creator, title, description string
		goal                        int64
	}{
		{"empty creator", "", "t", "d", 10},
		{"empty title", "c", "", "d", 10},
		{"empty description", "c", "t", "", 10},
		{"zero goal", "c", "t", "d", 0},
		{"negative goal", "c", "t", "d", -5},
	}
	for _, tc := range cases {
		if _, err := s.Create(ctx, tc.creator, tc.title, tc.description, tc.goal); !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}

	list, _ := s.List(ctx)
	if len(list) != 0 {
		t.Fatalf("expected no campaigns, got %d", len(list))
	}
}

func TestGet_OutOfRange(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()
	if _, err := s.Create(ctx, "c", "t", "d", 10); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, id := range []int64{0, -1, 2, 999} {
		if _, err := s.Get(ctx, id); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("id %d: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestApplyContribution_ErrorOrder(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()
	c, _ := s.Create(ctx, "c", "t", "d", 10)

	if _, err := s.ApplyContribution(ctx, 99, "x", 0); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound first, got %v", err)
	}
	if _, err := s.ApplyContribution(ctx, c.ID, "x", 0); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.ApplyContribution(ctx, c.ID, "", 5); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty contributor, got %v", err)
	}

	res, err := s.ApplyContribution(ctx, c.ID, "x", 10)
	if err != nil || !res.JustFunded {
		t.Fatalf("expected just funded, got %+v, %v", res, err)
	}
	if _, err := s.ApplyContribution(ctx, c.ID, "x", -1); !errors.Is(err, models.ErrAlreadyFunded) {
		t.Fatalf("expected ErrAlreadyFunded before amount check, got %v", err)
	}
}

func TestApplyContribution_TracksPerContributorTotals(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()
	c, _ := s.Create(ctx, "c", "t", "d", 100)

	for _, step := range []struct {
		who    string
		amount int64
	}{{"bob", 10}, {"alice", 5}, {"bob", 20}} {
		if _, err := s.ApplyContribution(ctx, c.ID, step.who, step.amount); err != nil {
			t.Fatalf("contribute: %v", err)
		}
	}

	entries, err := s.Contributions(ctx, c.ID)
	if err != nil {
		t.Fatalf("contributions: %v", err)
	}
	if len(entries) != 2 || entries[0].Contributor != "alice" || entries[0].Amount != 5 || entries[1].Amount != 30 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	got, _ := s.Get(ctx, c.ID)
	if got.FundsRaised != 35 || got.Funded() {
		t.Fatalf("unexpected campaign %+v", got)
	}
}

func TestApplyContribution_RejectsOverflow(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()
	c, _ := s.Create(ctx, "c", "t", "d", math.MaxInt64)

	if _, err := s.ApplyContribution(ctx, c.ID, "x", math.MaxInt64-1); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if _, err := s.ApplyContribution(ctx, c.ID, "y", 2); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on overflow, got %v", err)
	}
}

func TestApplyContribution_ConcurrentSumMatchesLedger(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()
	c, _ := s.Create(ctx, "c", "t", "d", 1_000_000)
	other, _ := s.Create(ctx, "c", "t", "d", 1_000_000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.ApplyContribution(ctx, c.ID, []string{"a", "b", "c"}[i%3], 7)
		}(i)
		go func() {
			defer wg.Done()
			s.ApplyContribution(ctx, other.ID, "z", 1)
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, c.ID)
	entries, _ := s.Contributions(ctx, c.ID)
	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	if got.FundsRaised != 700 || sum != got.FundsRaised {
		t.Fatalf("funds raised %d, ledger sum %d", got.FundsRaised, sum)
	}
	if got.Version != 101 {
		t.Fatalf("expected version 101, got %d", got.Version)
	}
}

func TestApplyWithdrawal_Checks(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()
	c, _ := s.Create(ctx, "creator", "t", "d", 10)

	if _, _, err := s.ApplyWithdrawal(ctx, c.ID, "mallory"); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := s.ApplyWithdrawal(ctx, c.ID, "creator"); !errors.Is(err, models.ErrNotFunded) {
		t.Fatalf("expected ErrNotFunded, got %v", err)
	}
	if _, err := s.ApplyContribution(ctx, c.ID, "x", 12); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	p, after, err := s.ApplyWithdrawal(ctx, c.ID, "creator")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if p.Amount != 12 || p.Status != models.PayoutPending || p.ID == "" {
		t.Fatalf("unexpected payout %+v", p)
	}
	if after.FundsRaised != 0 || after.State != models.CampaignWithdrawn {
		t.Fatalf("unexpected campaign %+v", after)
	}

	if _, _, err := s.ApplyWithdrawal(ctx, c.ID, "creator"); !errors.Is(err, models.ErrAlreadyWithdrawn) {
		t.Fatalf("expected ErrAlreadyWithdrawn, got %v", err)
	}
	stored, err := s.GetPayout(ctx, c.ID)
	if err != nil || stored.ID != p.ID {
		t.Fatalf("payout should be kept, got %+v, %v", stored, err)
	}
}

func TestRecordPayoutAttempt(t *testing.T) {
	s := NewMemoryCampaignStore()
	ctx := context.Background()
	c, _ := s.Create(ctx, "creator", "t", "d", 10)

	if _, err := s.RecordPayoutAttempt(ctx, c.ID, nil); !errors.Is(err, models.ErrPayoutNotFound) {
		t.Fatalf("expected ErrPayoutNotFound, got %v", err)
	}

	s.ApplyContribution(ctx, c.ID, "x", 10)
	s.ApplyWithdrawal(ctx, c.ID, "creator")

	p, err := s.RecordPayoutAttempt(ctx, c.ID, errors.New("timeout"))
	if err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if p.Settled() || p.Attempts != 1 || p.LastError != "timeout" {
		t.Fatalf("unexpected payout after failure %+v", p)
	}

	p, err = s.RecordPayoutAttempt(ctx, c.ID, nil)
	if err != nil {
		t.Fatalf("record success: %v", err)
	}
	if !p.Settled() || p.Attempts != 2 || p.LastError != "" || p.SettledAt == nil {
		t.Fatalf("unexpected payout after success %+v", p)
	}

	p, _ = s.RecordPayoutAttempt(ctx, c.ID, errors.New("late failure"))
	if !p.Settled() || p.Attempts != 2 {
		t.Fatalf("settled payout must not change, got %+v", p)
	}
}
