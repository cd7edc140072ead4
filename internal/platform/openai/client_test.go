package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

func outputBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"output": []any{
			map[string]any{
				"type": "message",
				"role": "assistant",
				"content": []any{
					map[string]any{"type": "output_text", "text": text},
				},
			},
		},
	})
	return string(b)
}

func newTestClient(t *testing.T, url string, retries int) Client {
	t.Helper()
	temp := 0.2
	c, err := NewClient(logger.Nop(), Config{
		APIKey:      "sk-test",
		BaseURL:     url,
		Model:       "gpt-test",
		Timeout:     5 * time.Second,
		MaxRetries:  retries,
		Temperature: &temp,
	})
	require.NoError(t, err)
	return c
}

var testSchema = map[string]any{
	"type":                 "object",
	"properties":           map[string]any{"codes": map[string]any{"type": "array", "items": map[string]any{"type": "string"}}},
	"required":             []string{"codes"},
	"additionalProperties": false,
}

func TestGenerateJSONSendsStrictSchema(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		_, _ = io.WriteString(w, outputBody(`{"codes":["Empathy"]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	out, err := c.GenerateJSON(context.Background(), "sys", "usr", "codes", testSchema)
	require.NoError(t, err)
	assert.Equal(t, []any{"Empathy"}, out["codes"])

	require.NotNil(t, got)
	assert.Equal(t, "gpt-test", got["model"])
	format := got["text"].(map[string]any)["format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, "codes", format["name"])
	assert.Equal(t, true, format["strict"])
	assert.InDelta(t, 0.2, got["temperature"], 1e-9)
}

func TestGenerateJSONDoesNotRetryThrottling(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.GenerateJSON(context.Background(), "sys", "usr", "codes", testSchema)
	require.Error(t, err)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusTooManyRequests, he.HTTPStatusCode())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateJSONRetriesServerFaults(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, outputBody(`{"codes":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	out, err := c.GenerateJSON(context.Background(), "sys", "usr", "codes", testSchema)
	require.NoError(t, err)
	assert.Equal(t, []any{}, out["codes"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateJSONDropsUnsupportedTemperature(t *testing.T) {
	var withTemp, withoutTemp int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if strings.Contains(string(raw), `"temperature"`) {
			atomic.AddInt32(&withTemp, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model."}}`)
			return
		}
		atomic.AddInt32(&withoutTemp, 1)
		_, _ = io.WriteString(w, outputBody(`{"codes":["A"]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	for i := 0; i < 2; i++ {
		_, err := c.GenerateJSON(context.Background(), "sys", "usr", "codes", testSchema)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&withTemp))
	assert.Equal(t, int32(2), atomic.LoadInt32(&withoutTemp))
}

func TestGenerateJSONRefusalAndBadJSON(t *testing.T) {
	body := outputBody(`{"codes": [{"quote": "the billing office said retry later`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.GenerateJSON(context.Background(), "sys", "usr", "codes", testSchema)
	require.ErrorContains(t, err, "failed to parse model JSON")
	assert.NotContains(t, err.Error(), "billing")
	var oe *OutputError
	require.ErrorAs(t, err, &oe)
	assert.True(t, oe.Permanent())

	_, err = c.GenerateJSON(context.Background(), "sys", "usr", "", testSchema)
	require.ErrorContains(t, err, "schemaName required")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{})
	require.Error(t, err)
}

func TestWithModel(t *testing.T) {
	c := newTestClient(t, "http://localhost", 0)
	other := WithModel(c, "gpt-other")
	assert.Equal(t, "gpt-other", other.Model())
	assert.Equal(t, "gpt-test", c.Model())
	assert.Same(t, c, WithModel(c, " "))
}
