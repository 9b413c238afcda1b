package ledgerlensctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const sessionHeader = "X-Session-ID"

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// apiError is a non-2xx answer from the server, decoded from the shared
// error envelope when possible.
type apiError struct {
	Status    int            `json:"-"`
	Code      string         `json:"error_code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Context   map[string]any `json:"context"`
	TraceID   string         `json:"trace_id"`
	raw       string
}

func (e *apiError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.raw)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

func (c *client) do(ctx context.Context, method, path string, payload any, headers map[string]string) (response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.baseURL, "/")+path, body)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(c.apiKey))
	}
	for key, value := range headers {
		if strings.TrimSpace(value) != "" {
			req.Header.Set(key, strings.TrimSpace(value))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, &requestError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, &requestError{err: err}
	}
	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode, raw: strings.TrimSpace(string(raw))}
		_ = json.Unmarshal(raw, apiErr)
		return response{}, apiErr
	}
	return response{status: resp.StatusCode, header: resp.Header, body: raw}, nil
}

func (c *client) getJSON(ctx context.Context, path string, headers map[string]string, target any) (response, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, headers)
	if err != nil {
		return resp, err
	}
	return resp, decodeInto(resp.body, target)
}

func (c *client) postJSON(ctx context.Context, path string, payload any, headers map[string]string, target any) (response, error) {
	resp, err := c.do(ctx, http.MethodPost, path, payload, headers)
	if err != nil {
		return resp, err
	}
	return resp, decodeInto(resp.body, target)
}

func decodeInto(raw []byte, target any) error {
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func exportPath(turnID string, item int, format string) string {
	return fmt.Sprintf("/v1/report/turns/%s/items/%d/export.%s", url.PathEscape(turnID), item, url.PathEscape(format))
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}
