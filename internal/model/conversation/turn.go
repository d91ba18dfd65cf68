package conversation

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser    Role = "user"
	RoleAnalyst Role = "analyst"
)

// SegmentType discriminates the content variants inside a turn. The wire
// names follow the Cortex Analyst message content items.
type SegmentType string

const (
	SegmentText        SegmentType = "text"
	SegmentQuery       SegmentType = "sql"
	SegmentSuggestions SegmentType = "suggestions"
)

// Segment is one typed unit of a turn's payload. Exactly one variant is
// populated, selected by Type.
type Segment struct {
	Type        SegmentType `json:"type"`
	Text        string      `json:"text,omitempty"`
	Statement   string      `json:"statement,omitempty"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

// TextSegment builds a free-text segment.
func TextSegment(text string) Segment {
	return Segment{Type: SegmentText, Text: text}
}

// QuerySegment builds a generated-statement segment.
func QuerySegment(statement string) Segment {
	return Segment{Type: SegmentQuery, Statement: statement}
}

// SuggestionsSegment builds a follow-up suggestions segment.
func SuggestionsSegment(options []string) Segment {
	return Segment{Type: SegmentSuggestions, Suggestions: options}
}

// Validate rejects segments whose variant tag is unknown or absent.
func (s Segment) Validate() error {
	switch s.Type {
	case SegmentText, SegmentQuery, SegmentSuggestions:
		return nil
	case "":
		return fmt.Errorf("content segment missing type")
	default:
		return fmt.Errorf("unknown content segment type %q", s.Type)
	}
}

// UnmarshalJSON decodes a segment and fails on an unrecognized variant tag
// instead of silently dropping it.
func (s *Segment) UnmarshalJSON(data []byte) error {
	type alias Segment
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = Segment(decoded)
	return s.Validate()
}

// Turn is one message in the conversation. Its content sequence is immutable
// once the turn has been appended to the log.
type Turn struct {
	Role          Role      `json:"role"`
	Content       []Segment `json:"content"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// UserTurn wraps typed input into a single-text user turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: []Segment{TextSegment(text)}}
}

// FirstQuery returns the statement of the first query segment, if any.
// Additional query segments in the same turn are rendered but never
// auto-executed.
func (t Turn) FirstQuery() (string, bool) {
	for _, seg := range t.Content {
		if seg.Type == SegmentQuery {
			return seg.Statement, true
		}
	}
	return "", false
}
