package interfaces

import (
	"context"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/models/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
