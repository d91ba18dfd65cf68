// Package warehouse implements the query-execution collaborator on top of
// the Snowflake SQL REST API.
package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dampiermike/cortex-chat/backend/internal/config"
	model "github.com/dampiermike/cortex-chat/backend/internal/model/conversation"
)

const statementsPath = "/api/v2/statements"

// pingStatement mirrors the connectivity probe the service has always used.
const pingStatement = "SELECT CURRENT_VERSION(), CURRENT_WAREHOUSE(), CURRENT_DATABASE(), CURRENT_SCHEMA()"

// Client executes SQL statements through the statements endpoint with PAT
// authentication.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	warehouse  string
	database   string
	schema     string
	timeout    time.Duration
}

// NewClient builds a client from Snowflake configuration.
func NewClient(cfg config.SnowflakeConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.QueryTimeout},
		baseURL:    cfg.BaseURL(),
		token:      cfg.Token,
		warehouse:  cfg.Warehouse,
		database:   cfg.Database,
		schema:     cfg.Schema,
		timeout:    cfg.QueryTimeout,
	}
}

type statementRequest struct {
	Statement string `json:"statement"`
	Timeout   int    `json:"timeout"`
	Warehouse string `json:"warehouse,omitempty"`
	Database  string `json:"database,omitempty"`
	Schema    string `json:"schema,omitempty"`
}

type statementResponse struct {
	ResultSetMetaData struct {
		NumRows int64 `json:"numRows"`
		RowType []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"rowType"`
	} `json:"resultSetMetaData"`
	Data    [][]any `json:"data"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}

// ExecuteQuery runs one statement and maps the result set to named rows.
// The row count is computed from the rows actually returned, not taken from
// the service metadata.
func (c *Client) ExecuteQuery(ctx context.Context, statement string) (model.QueryResult, error) {
	payload := statementRequest{
		Statement: statement,
		Timeout:   int(c.timeout.Seconds()),
		Warehouse: c.warehouse,
		Database:  c.database,
		Schema:    c.schema,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.QueryResult{}, fmt.Errorf("encode statement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+statementsPath, bytes.NewReader(body))
	if err != nil {
		return model.QueryResult{}, fmt.Errorf("build statement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Snowflake-Authorization-Token-Type", "PROGRAMMATIC_ACCESS_TOKEN")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.QueryResult{}, fmt.Errorf("statement request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.QueryResult{}, fmt.Errorf("read statement response: %w", err)
	}

	var decoded statementResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.QueryResult{}, fmt.Errorf("decode statement response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Message != "" {
			return model.QueryResult{}, fmt.Errorf("statement failed (%s): %s", decoded.Code, decoded.Message)
		}
		return model.QueryResult{}, fmt.Errorf("statement failed with status %d", resp.StatusCode)
	}

	columns := make([]string, 0, len(decoded.ResultSetMetaData.RowType))
	for _, col := range decoded.ResultSetMetaData.RowType {
		columns = append(columns, col.Name)
	}

	rows := make([]model.Row, 0, len(decoded.Data))
	for _, cells := range decoded.Data {
		row := make(model.Row, len(columns))
		for i, name := range columns {
			if i < len(cells) {
				row[name] = cells[i]
			} else {
				row[name] = nil
			}
		}
		rows = append(rows, row)
	}

	logrus.WithFields(logrus.Fields{"columns": len(columns), "rows": len(rows)}).Debug("statement executed")

	return model.QueryResult{Columns: columns, Rows: rows, RowCount: len(rows)}, nil
}

// Ping verifies warehouse connectivity with a trivial query and returns the
// reported version context.
func (c *Client) Ping(ctx context.Context) (model.QueryResult, error) {
	return c.ExecuteQuery(ctx, pingStatement)
}
