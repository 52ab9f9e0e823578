package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	interfaces "github.com/sheikh-saqib/idea-funding-ledger/internal/interfaces"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/models/events"
)

// Publisher appends ledger events to a Redis stream.
type Publisher struct {
	client goredis.UniversalClient
	stream string
}

func NewPublisher(client goredis.UniversalClient, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	args, err := p.xaddArgs(event)
	if err != nil {
		return err
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", event.EventType(), err)
	}
	return nil
}

func (p *Publisher) xaddArgs(event events.Event) (*goredis.XAddArgs, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	return &goredis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type": event.EventType(),
			"idea_id":    event.IdeaID(),
			"payload":    string(payload),
		},
	}, nil
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
