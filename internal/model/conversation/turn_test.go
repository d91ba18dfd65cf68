package conversation_test

import (
	"encoding/json"
	"testing"

	conversation "github.com/dampiermike/cortex-chat/backend/internal/model/conversation"
)

func TestSegmentUnmarshalKnownTypes(t *testing.T) {
	payload := []byte(`[
		{"type":"text","text":"Here is the revenue breakdown."},
		{"type":"sql","statement":"SELECT SUM(revenue) FROM daily_revenue"},
		{"type":"suggestions","suggestions":["By month?","By region?"]}
	]`)

	var segments []conversation.Segment
	if err := json.Unmarshal(payload, &segments); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[0].Type != conversation.SegmentText || segments[0].Text == "" {
		t.Fatalf("unexpected text segment: %+v", segments[0])
	}
	if segments[1].Type != conversation.SegmentQuery || segments[1].Statement == "" {
		t.Fatalf("unexpected query segment: %+v", segments[1])
	}
	if segments[2].Type != conversation.SegmentSuggestions || len(segments[2].Suggestions) != 2 {
		t.Fatalf("unexpected suggestions segment: %+v", segments[2])
	}
}

func TestSegmentUnmarshalUnknownType(t *testing.T) {
	var segment conversation.Segment
	if err := json.Unmarshal([]byte(`{"type":"chart","spec":"{}"}`), &segment); err == nil {
		t.Fatal("expected error for unknown segment type")
	}
}

func TestSegmentUnmarshalMissingType(t *testing.T) {
	var segment conversation.Segment
	if err := json.Unmarshal([]byte(`{"text":"orphaned"}`), &segment); err == nil {
		t.Fatal("expected error for missing segment type")
	}
}

func TestTurnFirstQuery(t *testing.T) {
	turn := conversation.Turn{
		Role: conversation.RoleAnalyst,
		Content: []conversation.Segment{
			conversation.TextSegment("two candidate queries"),
			conversation.QuerySegment("SELECT 1"),
			conversation.QuerySegment("SELECT 2"),
		},
	}

	statement, ok := turn.FirstQuery()
	if !ok {
		t.Fatal("expected a query segment")
	}
	if statement != "SELECT 1" {
		t.Fatalf("expected first statement, got %q", statement)
	}
}

func TestTurnFirstQueryAbsent(t *testing.T) {
	turn := conversation.UserTurn("what is total revenue?")
	if _, ok := turn.FirstQuery(); ok {
		t.Fatal("user turn should not carry a query")
	}
}
