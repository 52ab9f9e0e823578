package interfaces

import (
	"context"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
)

// CampaignStore is the authoritative home of campaigns and their contribution
// ledgers. Every mutation is atomic per campaign id; implementations must
// serialize concurrent mutations of the same campaign without blocking
// unrelated ones.
type CampaignStore interface {
	Create(ctx context.Context, creator, title, description string, goalAmount int64) (models.Campaign, error)
	Get(ctx context.Context, id int64) (models.Campaign, error)
	List(ctx context.Context) ([]models.Campaign, error)
	Contributions(ctx context.Context, id int64) ([]models.Contribution, error)

	ApplyContribution(ctx context.Context, id int64, contributor string, amount int64) (models.ContributionResult, error)
	// ApplyWithdrawal zeroes the raised funds, marks the campaign withdrawn and
	// records a pending payout for the captured amount in one step.
	ApplyWithdrawal(ctx context.Context, id int64, requester string) (models.Payout, models.Campaign, error)

	GetPayout(ctx context.Context, campaignID int64) (models.Payout, error)
	// RecordPayoutAttempt settles the payout when transferErr is nil,
	// otherwise counts the failed attempt. Settled payouts stay settled.
	RecordPayoutAttempt(ctx context.Context, campaignID int64, transferErr error) (models.Payout, error)
}
