package warehouse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dampiermike/cortex-chat/backend/internal/config"
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

func TestExecuteQueryMapsResultSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != statementsPath {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req statementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Statement != "SELECT region, SUM(revenue) FROM daily_revenue GROUP BY region" {
			t.Errorf("unexpected statement: %q", req.Statement)
		}
		if req.Warehouse != "COMPUTE_WH" || req.Database != "DAMPIERMIKE" {
			t.Errorf("missing execution scope: %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"resultSetMetaData": map[string]any{
				"numRows": 2,
				"rowType": []map[string]any{
					{"name": "REGION", "type": "text"},
					{"name": "TOTAL", "type": "fixed"},
				},
			},
			"data": [][]any{
				{"EMEA", "1200.50"},
				{"APAC", "980.00"},
			},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.ExecuteQuery(context.Background(), "SELECT region, SUM(revenue) FROM daily_revenue GROUP BY region")
	if err != nil {
		t.Fatalf("ExecuteQuery err: %v", err)
	}

	if len(result.Columns) != 2 || result.Columns[0] != "REGION" || result.Columns[1] != "TOTAL" {
		t.Fatalf("unexpected columns: %v", result.Columns)
	}
	if result.RowCount != 2 || len(result.Rows) != 2 {
		t.Fatalf("unexpected row count: %d (%d rows)", result.RowCount, len(result.Rows))
	}
	if result.Rows[0]["REGION"] != "EMEA" || result.Rows[1]["TOTAL"] != "980.00" {
		t.Fatalf("unexpected rows: %v", result.Rows)
	}
}

func TestExecuteQueryRaggedRowPadsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"resultSetMetaData": map[string]any{
				"rowType": []map[string]any{{"name": "A"}, {"name": "B"}},
			},
			"data": [][]any{{"only-a"}},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.ExecuteQuery(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("ExecuteQuery err: %v", err)
	}
	if result.Rows[0]["A"] != "only-a" || result.Rows[0]["B"] != nil {
		t.Fatalf("unexpected padding: %v", result.Rows[0])
	}
}

func TestExecuteQueryErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"code":    "001003",
			"message": "SQL compilation error: syntax error",
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ExecuteQuery(context.Background(), "SELEKT 1")
	if err == nil {
		t.Fatal("expected error for failed statement")
	}
	if !strings.Contains(err.Error(), "SQL compilation error") {
		t.Fatalf("error should carry the service message, got %v", err)
	}
	if !strings.Contains(err.Error(), "001003") {
		t.Fatalf("error should carry the service code, got %v", err)
	}
}

func TestPingUsesProbeStatement(t *testing.T) {
	var gotStatement string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req statementRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotStatement = req.Statement

		json.NewEncoder(w).Encode(map[string]any{
			"resultSetMetaData": map[string]any{
				"rowType": []map[string]any{{"name": "CURRENT_VERSION()"}},
			},
			"data": [][]any{{"8.32.1"}},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping err: %v", err)
	}
	if !strings.Contains(gotStatement, "CURRENT_VERSION()") {
		t.Fatalf("unexpected probe statement: %q", gotStatement)
	}
	if result.RowCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
