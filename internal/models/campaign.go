package models

import "time"

// CampaignState is the lifecycle position of a campaign.
// Transitions only ever move forward: open -> funded -> withdrawn.
type CampaignState string

const (
	CampaignOpen      CampaignState = "open"
	CampaignFunded    CampaignState = "funded"
	CampaignWithdrawn CampaignState = "withdrawn"
)

// Campaign represents a funding idea registered by a creator
type Campaign struct {
	ID          int64         `json:"id"`
	Creator     string        `json:"creator"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	GoalAmount  int64         `json:"goal_amount"` // smallest value unit
	FundsRaised int64         `json:"funds_raised"`
	State       CampaignState `json:"state"`
	Version     int64         `json:"version"` // bumped on every committed mutation
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Funded reports whether the goal has ever been reached.
func (c Campaign) Funded() bool {
	return c.State == CampaignFunded || c.State == CampaignWithdrawn
}

func (c Campaign) Withdrawn() bool {
	return c.State == CampaignWithdrawn
}

// Contribution is the cumulative amount one contributor pledged to a campaign
type Contribution struct {
	CampaignID  int64  `json:"idea_id"`
	Contributor string `json:"contributor"`
	Amount      int64  `json:"amount"`
}

// ContributionResult is what a store reports back after applying a contribution
type ContributionResult struct {
	Campaign   Campaign // state after the contribution
	JustFunded bool     // true only for the contribution that crossed the goal
}
