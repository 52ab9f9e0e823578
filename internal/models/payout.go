package models

import "time"

type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutSettled PayoutStatus = "settled"
)

// Payout holds withdrawn funds between the ledger commit and the
// confirmed transfer to the creator's account.
type Payout struct {
	ID         string       `json:"id"`
	CampaignID int64        `json:"idea_id"`
	Creator    string       `json:"creator"`
	Amount     int64        `json:"amount"`
	Status     PayoutStatus `json:"status"`
	Attempts   int          `json:"attempts"`
	LastError  string       `json:"last_error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	SettledAt  *time.Time   `json:"settled_at,omitempty"`
}

func (p Payout) Settled() bool {
	return p.Status == PayoutSettled
}
