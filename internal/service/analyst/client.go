// Package analyst implements the analyst collaborator on top of the
// Snowflake Cortex Analyst REST API.
package analyst

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
	"github.com/dampiermike/cortex-chat/backend/internal/service/conversation"
)

const messagePath = "/api/v2/cortex/analyst/message"

// Client calls the Cortex Analyst message endpoint with PAT authentication.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	warehouse  string
	database   string
	schema     string
}

// NewClient builds a client from Snowflake configuration. The HTTP timeout
// follows cfg.AnalystTimeout; analyst generation routinely takes minutes, so
// no shorter timeout is layered on top.
func NewClient(cfg config.SnowflakeConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.AnalystTimeout},
		baseURL:    cfg.BaseURL(),
		token:      cfg.Token,
		warehouse:  cfg.Warehouse,
		database:   cfg.Database,
		schema:     cfg.Schema,
	}
}

type wireMessage struct {
	Role    model.Role      `json:"role"`
	Content []model.Segment `json:"content"`
}

type messageRequest struct {
	Messages          []wireMessage `json:"messages"`
	SemanticModelFile string        `json:"semantic_model_file"`
}

type messageResponse struct {
	Message   wireMessage `json:"message"`
	RequestID string      `json:"request_id"`
}

type errorResponse struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
	RequestID string `json:"request_id"`
}

// SubmitConversation sends the full conversation so far and returns the
// next analyst turn. Failures come back as *conversation.AnalystError when
// the service returned a structured payload.
func (c *Client) SubmitConversation(ctx context.Context, turns []model.Turn, semanticModel string) (model.Turn, error) {
	payload := messageRequest{
		Messages:          make([]wireMessage, 0, len(turns)),
		SemanticModelFile: "@" + semanticModel,
	}
	for _, turn := range turns {
		payload.Messages = append(payload.Messages, wireMessage{Role: turn.Role, Content: turn.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.Turn{}, fmt.Errorf("encode analyst request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagePath, bytes.NewReader(body))
	if err != nil {
		return model.Turn{}, fmt.Errorf("build analyst request: %w", err)
	}
	c.setHeaders(req)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Turn{}, fmt.Errorf("analyst request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Turn{}, fmt.Errorf("read analyst response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return model.Turn{}, decodeError(resp.StatusCode, raw)
	}

	var decoded messageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.Turn{}, fmt.Errorf("decode analyst response: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"requestId": decoded.RequestID,
		"elapsed":   time.Since(started).Round(time.Millisecond),
	}).Info("analyst responded")

	// The service labels the message role itself, but the turn is an
	// analyst turn regardless of what came over the wire.
	return model.Turn{
		Role:          model.RoleAnalyst,
		Content:       decoded.Message.Content,
		CorrelationID: decoded.RequestID,
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Snowflake-Authorization-Token-Type", "PROGRAMMATIC_ACCESS_TOKEN")
	req.Header.Set("X-Snowflake-Warehouse", c.warehouse)
	req.Header.Set("X-Snowflake-Database", c.database)
	req.Header.Set("X-Snowflake-Schema", c.schema)
}

func decodeError(status int, raw []byte) error {
	analystErr := &conversation.AnalystError{
		Message: fmt.Sprintf("Cortex Analyst API error: %d", status),
	}

	var decoded errorResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
		analystErr.Detail = map[string]any{"message": decoded.Message}
		if decoded.ErrorCode != "" {
			analystErr.Detail["error_code"] = decoded.ErrorCode
		}
		if decoded.RequestID != "" {
			analystErr.Detail["request_id"] = decoded.RequestID
		}
	} else if len(raw) > 0 {
		analystErr.Detail = map[string]any{"message": string(raw)}
	}

	return analystErr
}
