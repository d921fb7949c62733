package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"potato-check/api/internal/apperr"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(status int, body string) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	}
}

func newTestClient(rt http.RoundTripper) *Client {
	return New("secret-key", "gemini-test", "https://generativelanguage.googleapis.com/", &http.Client{Transport: rt})
}

func TestNewAnalyzeRequest_Shape(t *testing.T) {
	req := NewAnalyzeRequest("iVBORw0KGgo=")

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	contents := m["contents"].([]any)
	require.Len(t, contents, 1)
	first := contents[0].(map[string]any)
	assert.Equal(t, "user", first["role"])

	parts := first["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, AnalyzePrompt, parts[0].(map[string]any)["text"])
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/png", inline["mimeType"])
	assert.Equal(t, "iVBORw0KGgo=", inline["data"])

	gc := m["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gc["responseMimeType"])
	schema := gc["responseSchema"].(map[string]any)
	assert.Equal(t, "OBJECT", schema["type"])
	assert.ElementsMatch(t, []any{"verdict", "explanation", "signs"}, schema["required"])
	signs := schema["properties"].(map[string]any)["signs"].(map[string]any)
	assert.Equal(t, "ARRAY", signs["type"])
	assert.Equal(t, "STRING", signs["items"].(map[string]any)["type"])
}

func TestAnalyzePrompt_NamesVerdicts(t *testing.T) {
	for _, v := range []Verdict{VerdictSafe, VerdictCaution, VerdictDoNot} {
		assert.Contains(t, AnalyzePrompt, string(v))
		assert.True(t, v.Valid())
	}
	assert.False(t, Verdict("Maybe").Valid())
}

func TestAnalyzePrompt_Layout(t *testing.T) {
	assert.True(t, strings.HasPrefix(AnalyzePrompt, "\n      Analyze the provided image of a potato"))
	assert.True(t, strings.HasSuffix(AnalyzePrompt, "the list should be empty.\n  "))
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(AnalyzePrompt, "\n"), "\n  "), "\n")
	require.Len(t, lines, 5)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "      ") && l[6] != ' ', "line %q", l)
	}
}

func TestClient_GenerateContent_Request(t *testing.T) {
	var got *http.Request
	var body []byte
	c := newTestClient(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r
		body, _ = io.ReadAll(r.Body)
		return respond(http.StatusOK, `{"candidates":[]}`)(r)
	}))

	_, err := c.GenerateContent(context.Background(), NewAnalyzeRequest("AAAA"))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "https", got.URL.Scheme)
	assert.Equal(t, "generativelanguage.googleapis.com", got.URL.Host)
	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", got.URL.Path)
	assert.Equal(t, "secret-key", got.URL.Query().Get("key"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.True(t, json.Valid(body))
}

func TestClient_GenerateContent_Success(t *testing.T) {
	provider := `{
  "candidates": [{"content": {"parts": [{"text": "{\"verdict\":\"Do Not Eat\",\"explanation\":\"green\",\"signs\":[\"greening\"]}"}]}, "finishReason": "STOP"}],
  "usageMetadata": {"promptTokenCount": 10}
}`
	c := newTestClient(respond(http.StatusOK, provider))

	res, err := c.GenerateContent(context.Background(), NewAnalyzeRequest("AAAA"))
	require.NoError(t, err)

	assert.JSONEq(t, provider, string(res.Body))
	assert.NotContains(t, string(res.Body), "\n")

	a, ok := res.Response.Assessment()
	require.True(t, ok)
	assert.Equal(t, VerdictDoNot, a.Verdict)
	assert.Equal(t, []string{"greening"}, a.Signs)
}

func TestClient_GenerateContent_StatusError(t *testing.T) {
	c := newTestClient(respond(http.StatusServiceUnavailable, "quota exceeded"))

	_, err := c.GenerateContent(context.Background(), NewAnalyzeRequest("AAAA"))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "quota exceeded", se.Body)
}

func TestClient_GenerateContent_TransportErrorHidesURL(t *testing.T) {
	c := newTestClient(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("network unreachable")
	}))

	_, err := c.GenerateContent(context.Background(), NewAnalyzeRequest("AAAA"))
	require.Error(t, err)
	assert.Equal(t, "network unreachable", err.Error())
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestClient_GenerateContent_MalformedJSON(t *testing.T) {
	c := newTestClient(respond(http.StatusOK, `<html>oops</html>`))

	_, err := c.GenerateContent(context.Background(), NewAnalyzeRequest("AAAA"))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestClient_GenerateContent_ContextDeadline(t *testing.T) {
	c := newTestClient(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GenerateContent(ctx, NewAnalyzeRequest("AAAA"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_GenerateContent_EmptyKey(t *testing.T) {
	calls := 0
	c := New("", "m", "https://example.com", &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(http.StatusOK, `{}`)(r)
	})})

	_, err := c.GenerateContent(context.Background(), NewAnalyzeRequest("AAAA"))
	assert.Error(t, err)
	assert.Zero(t, calls)
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"object without candidates", `{"promptFeedback":{"blockReason":"SAFETY"}}`, false},
		{"candidates array", `{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}`, false},
		{"array body", `[1,2]`, true},
		{"null body", `null`, true},
		{"string body", `"hello"`, true},
		{"candidates not array", `{"candidates":"nope"}`, true},
		{"truncated", `{"candidates":[`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAssessment_FencedAndMissing(t *testing.T) {
	r := &GenerateContentResponse{Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "```json\n{\"verdict\":\"Use with Caution\",\"explanation\":\"sprouts\",\"signs\":[\"sprouting\"]}\n```"}}}}}}
	a, ok := r.Assessment()
	require.True(t, ok)
	assert.Equal(t, VerdictCaution, a.Verdict)

	empty := &GenerateContentResponse{}
	_, ok = empty.Assessment()
	assert.False(t, ok)

	notJSON := &GenerateContentResponse{Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "I think it is fine"}}}}}}
	_, ok = notJSON.Assessment()
	assert.False(t, ok)
}
