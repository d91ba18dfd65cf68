package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dampiermike/cortex-chat/backend/internal/config"
	model "github.com/dampiermike/cortex-chat/backend/internal/model/conversation"
	"github.com/dampiermike/cortex-chat/backend/internal/service/conversation"
)

func testClient(baseURL string) *Client {
	c := NewClient(config.SnowflakeConfig{
		Account:        "myorg-account",
		Token:          "pat-token",
		Warehouse:      "COMPUTE_WH",
		Database:       "DAMPIERMIKE",
		Schema:         "PUBLIC",
		AnalystTimeout: 5 * time.Second,
		QueryTimeout:   5 * time.Second,
	})
	c.baseURL = baseURL
	return c
}

func TestSubmitConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != messagePath {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer pat-token" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		if got := r.Header.Get("X-Snowflake-Authorization-Token-Type"); got != "PROGRAMMATIC_ACCESS_TOKEN" {
			t.Errorf("unexpected token type header: %q", got)
		}

		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SemanticModelFile != "@DB.SCHEMA.STAGE/model.yaml" {
			t.Errorf("unexpected semantic model file: %q", req.SemanticModelFile)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != model.RoleUser {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{
				"role": "analyst",
				"content": []map[string]any{
					{"type": "text", "text": "Here is the revenue."},
					{"type": "sql", "statement": "SELECT SUM(revenue) FROM daily_revenue"},
					{"type": "suggestions", "suggestions": []string{"Break down by region?"}},
				},
			},
			"request_id": "req-123",
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	turn, err := c.SubmitConversation(context.Background(), []model.Turn{model.UserTurn("total revenue?")}, "DB.SCHEMA.STAGE/model.yaml")
	if err != nil {
		t.Fatalf("SubmitConversation err: %v", err)
	}

	if turn.Role != model.RoleAnalyst {
		t.Fatalf("unexpected role: %s", turn.Role)
	}
	if turn.CorrelationID != "req-123" {
		t.Fatalf("unexpected correlation id: %q", turn.CorrelationID)
	}
	if len(turn.Content) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(turn.Content))
	}
	if statement, ok := turn.FirstQuery(); !ok || statement != "SELECT SUM(revenue) FROM daily_revenue" {
		t.Fatalf("unexpected query: %q ok=%v", statement, ok)
	}
}

func TestSubmitConversationErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"message":    "semantic model not found",
			"error_code": "390201",
			"request_id": "req-456",
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.SubmitConversation(context.Background(), []model.Turn{model.UserTurn("hi")}, "missing.yaml")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}

	var analystErr *conversation.AnalystError
	if !errors.As(err, &analystErr) {
		t.Fatalf("expected AnalystError, got %T: %v", err, err)
	}
	if analystErr.Detail["message"] != "semantic model not found" {
		t.Fatalf("unexpected detail: %+v", analystErr.Detail)
	}
	if analystErr.Detail["error_code"] != "390201" {
		t.Fatalf("unexpected error code: %+v", analystErr.Detail)
	}
}

func TestSubmitConversationUnknownSegmentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{
				"role":    "analyst",
				"content": []map[string]any{{"type": "chart", "spec": "{}"}},
			},
			"request_id": "req-789",
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.SubmitConversation(context.Background(), []model.Turn{model.UserTurn("hi")}, "m.yaml"); err == nil {
		t.Fatal("expected decode error for unknown segment type")
	}
}
