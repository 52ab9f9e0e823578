package storage

import (
	"fmt"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/models"
)

// ValidateCampaign checks submission fields before any id is assigned.
func ValidateCampaign(creator, title, description string, goalAmount int64) error {
	switch {
	case creator == "":
		return fmt.Errorf("creator is required: %w", models.ErrInvalidInput)
	case title == "":
		return fmt.Errorf("title is required: %w", models.ErrInvalidInput)
	case description == "":
		return fmt.Errorf("description is required: %w", models.ErrInvalidInput)
	case goalAmount <= 0:
		return fmt.Errorf("goal amount must be positive: %w", models.ErrInvalidInput)
	}
	return nil
}

// ValidateContribution checks the contribution fields that do not depend on
// campaign state.
func ValidateContribution(contributor string, amount int64) error {
	switch {
	case amount <= 0:
		return fmt.Errorf("amount must be positive: %w", models.ErrInvalidInput)
	case contributor == "":
		return fmt.Errorf("contributor is required: %w", models.ErrInvalidInput)
	}
	return nil
}
