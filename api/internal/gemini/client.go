package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client calls the generateContent REST endpoint, one attempt per request.
type Client struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

// New builds a client. httpc may be nil; deadlines come from the request context.
func New(key, model, baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Client{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpc:   httpc,
	}
}

func (c *Client) GetModel() string { return c.Model }

// Endpoint is the request URL without the key, safe to log.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, url.PathEscape(c.Model))
}

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini %d: %s", e.StatusCode, e.Body)
}

// Result holds the provider's answer: Body is the compacted JSON to relay,
// Response its typed view.
type Result struct {
	Body     []byte
	Response *GenerateContentResponse
}

func (c *Client) GenerateContent(ctx context.Context, in GenerateContentRequest) (*Result, error) {
	if c.APIKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is empty")
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}

	u := c.Endpoint() + "?key=" + url.QueryEscape(c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		// url.Error would carry the full URL, key included.
		var ue *url.Error
		if errors.As(err, &ue) {
			return nil, ue.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	out, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("gemini: compact response: %w", err)
	}
	return &Result{Body: buf.Bytes(), Response: out}, nil
}
