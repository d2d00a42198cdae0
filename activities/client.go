// Package activities is the client for the downstream activity API. Payloads
// are passed through; only the fields the portal itself reads are modelled.
package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/homeschool-portal/internal/config"
	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 4 << 10

// Client calls the activity API with the signed-in user's ID token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	nowTime    func() time.Time
}

// NewClient returns a client for baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		nowTime:    time.Now,
	}
}

// APIError is a non-2xx response other than 401.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("activity api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("activity api returned %d: %s", e.StatusCode, e.Message)
}

// Generate requests a new activity for userID.
func (c *Client) Generate(ctx context.Context, token, userID string, payload json.RawMessage) (json.RawMessage, error) {
	body, err := mergeFields(payload, map[string]any{"userId": userID})
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/generate", nil, token, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History lists username's activities. filters are added to the query.
func (c *Client) History(ctx context.Context, token, username string, filters url.Values) ([]HistoryItem, error) {
	query := url.Values{}
	for k, v := range filters {
		query[k] = v
	}
	query.Set("username", username)

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/history", query, token, nil, &raw); err != nil {
		return nil, err
	}
	return decodeHistory(raw)
}

// decodeHistory accepts {"activities": [...]} or a bare array; anything else is empty.
func decodeHistory(raw json.RawMessage) ([]HistoryItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []HistoryItem{}, nil
	}

	if trimmed[0] == '[' {
		var items []HistoryItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("[activities History] %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Activities json.RawMessage `json:"activities"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("[activities History] %w", err)
	}
	if inner := bytes.TrimSpace(wrapped.Activities); len(inner) > 0 && inner[0] == '[' {
		var items []HistoryItem
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, fmt.Errorf("[activities History] %w", err)
		}
		return items, nil
	}
	return []HistoryItem{}, nil
}

// SubmitFeedback posts feedback. token and userID may be empty; anonymous
// feedback is accepted by the API.
func (c *Client) SubmitFeedback(ctx context.Context, token, userID string, payload json.RawMessage, userAgent string) (json.RawMessage, error) {
	extra := map[string]any{
		"timestamp": c.nowTime().UTC().Format(time.RFC3339Nano),
		"userAgent": userAgent,
	}
	if userID != "" {
		extra["userId"] = userID
	}
	body, err := mergeFields(payload, extra)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/feedback", nil, token, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ShareRequest publishes one history item to other users.
type ShareRequest struct {
	ItemID     string `json:"itemId"`
	Title      string `json:"title"`
	Subject    string `json:"subject"`
	GradeLevel string `json:"gradeLevel"`
}

// Share publishes one item.
func (c *Client) Share(ctx context.Context, token string, item ShareRequest) error {
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/share", nil, token, body, nil)
}

// DownloadLink is a short-lived URL for a generated PDF.
type DownloadLink struct {
	DownloadURL string          `json:"downloadUrl"`
	ExpiresAt   string          `json:"expiresAt,omitempty"`
	ExpiresIn   int             `json:"expiresIn,omitempty"`
	ObjectInfo  json.RawMessage `json:"objectInfo,omitempty"`
}

// DownloadURL asks for a pre-signed URL for key. bucket is optional.
func (c *Client) DownloadURL(ctx context.Context, token, key, userID, bucket string) (DownloadLink, error) {
	query := url.Values{}
	query.Set("key", key)
	query.Set("userId", userID)
	if bucket != "" {
		query.Set("bucket", bucket)
	}

	var result struct {
		DownloadLink
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.do(ctx, http.MethodGet, "/download", query, token, nil, &result); err != nil {
		return DownloadLink{}, err
	}
	if !result.Success || result.DownloadURL == "" {
		return DownloadLink{}, &APIError{StatusCode: http.StatusOK, Message: result.Error}
	}
	return result.DownloadLink, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body []byte, out any) error {
	if c.baseURL == "" {
		return &apperrors.ConfigurationError{Missing: []string{config.APIBaseURLVar}}
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("[activities %s %s] %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[activities %s %s] %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return apperrors.ErrUnauthorized
	}
	if resp.StatusCode == http.StatusForbidden {
		return apperrors.ErrForbidden
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(msg)}
		log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("Activity API request failed")
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("[activities %s %s] decode: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls "error" or "message" out of a JSON error body.
func errorMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// mergeFields adds fields to a JSON object payload. An empty payload is
// treated as {}.
func mergeFields(payload json.RawMessage, fields map[string]any) ([]byte, error) {
	obj := map[string]any{}
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &obj); err != nil {
			return nil, fmt.Errorf("payload must be a JSON object: %w", err)
		}
	}
	if obj == nil {
		obj = map[string]any{}
	}
	for k, v := range fields {
		obj[k] = v
	}
	return json.Marshal(obj)
}
