package kafka

import (
	"encoding/json"
	"testing"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/models/events"
)

func TestNewMessage_KeysByIdeaAndTagsType(t *testing.T) {
	msg, err := newMessage(events.FundingCompleted{ID: 42, TotalFunds: 100, Sequence: 3})
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	if string(msg.Key) != "42" {
		t.Fatalf("expected key 42, got %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != events.TypeFundingCompleted {
		t.Fatalf("unexpected headers: %+v", msg.Headers)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if decoded["total_funds"] != float64(100) || decoded["idea_id"] != float64(42) {
		t.Fatalf("unexpected payload: %v", decoded)
	}
}
