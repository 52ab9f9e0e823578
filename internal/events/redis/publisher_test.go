package redis

import (
	"testing"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/models/events"
)

func TestXAddArgs_CarriesTypeIdAndPayload(t *testing.T) {
	p := NewPublisher(nil, "ideas")
	args, err := p.xaddArgs(events.IdeaFunded{ID: 7, Funder: "alice", Amount: 25, Sequence: 2})
	if err != nil {
		t.Fatalf("xaddArgs: %v", err)
	}
	if args.Stream != "ideas" {
		t.Fatalf("expected stream ideas, got %q", args.Stream)
	}
	values, ok := args.Values.(map[string]any)
	if !ok {
		t.Fatalf("unexpected values type %T", args.Values)
	}
	if values["event_type"] != events.TypeIdeaFunded {
		t.Fatalf("unexpected event_type %v", values["event_type"])
	}
	if values["idea_id"] != int64(7) {
		t.Fatalf("unexpected idea_id %v", values["idea_id"])
	}
	want := `{"idea_id":7,"funder":"alice","amount":25,"sequence":2,"occurred_at":"0001-01-01T00:00:00Z"}`
	if values["payload"] != want {
		t.Fatalf("unexpected payload %v", values["payload"])
	}
}
