package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL: baseURL,
		AppName: "ai-agent",
		Timeout: 2 * time.Second,
	})
}

func TestRunSendsWireFormatAndParsesEvents(t *testing.T) {
	var gotBody runRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/run", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"author":"ai-agent","content":{"role":"model","parts":[{"text":"hi there"}]}}]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	reply, err := client.Run(context.Background(), "42", "session-abc", "hello")
	require.NoError(t, err)

	assert.Equal(t, "hi there", reply.Text)
	assert.Equal(t, "ai-agent", gotBody.AppName)
	assert.Equal(t, "42", gotBody.UserID)
	assert.Equal(t, "session-abc", gotBody.SessionID)
	require.Len(t, gotBody.NewMessage.Parts, 1)
	assert.Equal(t, "user", gotBody.NewMessage.Role)
	assert.Equal(t, "hello", gotBody.NewMessage.Parts[0].Text)
}

func TestRunErrorsOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Run(context.Background(), "42", "session-abc", "hello")
	assert.Error(t, err)
}

func TestRunErrorsWhenNoShapeMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected":{"shape":true}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Run(context.Background(), "42", "session-abc", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reply text")
}

func TestEnsureSessionIdempotent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/apps/ai-agent/users/42/sessions/session-abc", r.URL.Path)
		if calls == 1 {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"id":"session-abc"}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail":"Session already exists: session-abc"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	require.NoError(t, client.EnsureSession(context.Background(), "42", "session-abc"))
	require.NoError(t, client.EnsureSession(context.Background(), "42", "session-abc"))
	assert.Equal(t, 2, calls)
}

func TestEnsureSessionSurfacesOtherErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.Error(t, client.EnsureSession(context.Background(), "42", "session-abc"))
}

func TestRunStreamCollectsChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/run_sse", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, payload := range []string{
			`{"partial":true,"content":{"parts":[{"text":"Hel"}]}}`,
			`{"partial":true,"content":{"parts":[{"text":"lo!"}]}}`,
			`{"not_an_event":true}`,
		} {
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var chunks []string
	reply, err := client.RunStream(context.Background(), "42", "session-abc", "hello", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo!"}, chunks)
	assert.Equal(t, "Hello!", reply.Text)
}

func TestRunStreamKeepsDeltaBoundaryWhitespace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, payload := range []string{
			`{"partial":true,"content":{"parts":[{"text":"Hello, "}]}}`,
			`{"partial":true,"content":{"parts":[{"text":"world."}]}}`,
		} {
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var chunks []string
	reply, err := client.RunStream(context.Background(), "42", "session-abc", "hello", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello, ", "world."}, chunks)
	assert.Equal(t, "Hello, world.", reply.Text)
}

func TestRunStreamDropsAggregateAfterDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, payload := range []string{
			`{"partial":true,"content":{"parts":[{"text":"Hello, "}]}}`,
			`{"partial":true,"content":{"parts":[{"text":"world."}]}}`,
			`{"content":{"parts":[{"text":"Hello, world."}]}}`,
		} {
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var chunks []string
	reply, err := client.RunStream(context.Background(), "42", "session-abc", "hello", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello, ", "world."}, chunks)
	assert.Equal(t, "Hello, world.", reply.Text)
}

func TestRunStreamStopsOnChunkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"content\":{\"parts\":[{\"text\":\"x\"}]}}\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RunStream(context.Background(), "42", "session-abc", "hello", func(string) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/list-apps", r.URL.Path)
		fmt.Fprint(w, `["ai-agent"]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.NoError(t, client.Ping(context.Background()))

	server.Close()
	assert.Error(t, client.Ping(context.Background()))
}
