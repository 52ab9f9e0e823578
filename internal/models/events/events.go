package events

import "time"

const (
	TypeIdeaSubmitted    = "idea_submitted"
	TypeIdeaFunded       = "idea_funded"
	TypeFundingCompleted = "funding_completed"
	TypeFundsWithdrawn   = "funds_withdrawn"
)

// Event is a record of a committed ledger mutation.
// Sequence is the campaign version the mutation produced, so events of one
// idea can be ordered by consumers regardless of transport.
type Event interface {
	EventType() string
	IdeaID() int64
}

type IdeaSubmitted struct {
	ID         int64     `json:"idea_id"`
	Creator    string    `json:"creator"`
	Title      string    `json:"title"`
	GoalAmount int64     `json:"goal_amount"`
	Sequence   int64     `json:"sequence"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e IdeaSubmitted) EventType() string { return TypeIdeaSubmitted }
func (e IdeaSubmitted) IdeaID() int64     { return e.ID }

type IdeaFunded struct {
	ID         int64     `json:"idea_id"`
	Funder     string    `json:"funder"`
	Amount     int64     `json:"amount"`
	Sequence   int64     `json:"sequence"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e IdeaFunded) EventType() string { return TypeIdeaFunded }
func (e IdeaFunded) IdeaID() int64     { return e.ID }

type FundingCompleted struct {
	ID         int64     `json:"idea_id"`
	TotalFunds int64     `json:"total_funds"`
	Sequence   int64     `json:"sequence"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e FundingCompleted) EventType() string { return TypeFundingCompleted }
func (e FundingCompleted) IdeaID() int64     { return e.ID }

type FundsWithdrawn struct {
	ID         int64     `json:"idea_id"`
	Creator    string    `json:"creator"`
	Amount     int64     `json:"amount"`
	PayoutID   string    `json:"payout_id"`
	Sequence   int64     `json:"sequence"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e FundsWithdrawn) EventType() string { return TypeFundsWithdrawn }
func (e FundsWithdrawn) IdeaID() int64     { return e.ID }
