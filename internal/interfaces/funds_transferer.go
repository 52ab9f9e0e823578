package interfaces

import (
	"context"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
)

// FundsTransferer moves a payout into the creator's external account.
// Transfers must be idempotent on payout id.
type FundsTransferer interface {
	Transfer(ctx context.Context, payout models.Payout) error
}
