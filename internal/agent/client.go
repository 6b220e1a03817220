// Package agent talks to the externally hosted agent runtime over HTTP.
// The backend owns none of the reasoning; it forwards user messages and
// normalizes whatever shape the runtime answers with.
package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	BaseURL string
	AppName string
	Timeout time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Reply is the normalized assistant answer extracted from a runtime response.
type Reply struct {
	Text             string
	SuggestedActions []string
}

type messagePart struct {
	Text string `json:"text"`
}

type newMessage struct {
	Role  string        `json:"role"`
	Parts []messagePart `json:"parts"`
}

type runRequest struct {
	AppName    string     `json:"app_name"`
	UserID     string     `json:"user_id"`
	SessionID  string     `json:"session_id"`
	NewMessage newMessage `json:"new_message"`
	Streaming  bool       `json:"streaming,omitempty"`
}

// EnsureSession creates the session on the remote runtime. It is idempotent:
// the runtime answers 400 or 409 with an "already exists" message when the
// session is known, which is treated as success.
func (c *Client) EnsureSession(ctx context.Context, userID, sessionID string) error {
	url := fmt.Sprintf("%s/apps/%s/users/%s/sessions/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.AppName, userID, sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("build agent session request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(resp.Body)
	if (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict) &&
		strings.Contains(strings.ToLower(string(raw)), "already exists") {
		return nil
	}
	return fmt.Errorf("agent session status %d: %s", resp.StatusCode, string(raw))
}

// Run sends one user message and returns the normalized assistant reply.
func (c *Client) Run(ctx context.Context, userID, sessionID, text string) (Reply, error) {
	body := runRequest{
		AppName:   c.cfg.AppName,
		UserID:    userID,
		SessionID: sessionID,
		NewMessage: newMessage{
			Role:  "user",
			Parts: []messagePart{{Text: text}},
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return Reply{}, fmt.Errorf("marshal agent run request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/run"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("build agent run request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("agent run request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read agent response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Reply{}, fmt.Errorf("agent run status %d: %s", resp.StatusCode, string(raw))
	}

	reply, ok := ExtractReply(raw)
	if !ok {
		return Reply{}, fmt.Errorf("no reply text in agent response: %s", truncate(string(raw), 256))
	}
	return reply, nil
}

// RunStream sends one user message over the runtime's SSE endpoint, invoking
// onChunk for each text delta, and returns the full normalized reply.
func (c *Client) RunStream(ctx context.Context, userID, sessionID, text string, onChunk func(string) error) (Reply, error) {
	body := runRequest{
		AppName:   c.cfg.AppName,
		UserID:    userID,
		SessionID: sessionID,
		NewMessage: newMessage{
			Role:  "user",
			Parts: []messagePart{{Text: text}},
		},
		Streaming: true,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return Reply{}, fmt.Errorf("marshal agent stream request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/run_sse"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("build agent stream request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("agent stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return Reply{}, fmt.Errorf("agent stream status %d: %s", resp.StatusCode, string(raw))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var full strings.Builder
	var actions []string
	sawDelta := false

	emit := func(text string) error {
		full.WriteString(text)
		if onChunk != nil {
			return onChunk(text)
		}
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var event runtimeEvent
		if err := json.Unmarshal([]byte(payload), &event); err == nil && event.Content != nil {
			if found := scanSuggestedActions([]byte(payload)); len(found) > 0 {
				actions = found
			}
			// Delta text goes through verbatim: boundary whitespace between
			// chunks is part of the answer.
			text := event.Content.joinParts()
			if event.Partial {
				sawDelta = true
				if text == "" {
					continue
				}
				if err := emit(text); err != nil {
					return Reply{}, err
				}
				continue
			}
			// The runtime closes a delta sequence by re-sending the whole
			// answer in one non-partial event. Drop it once deltas arrived.
			if sawDelta || text == "" {
				continue
			}
			if err := emit(text); err != nil {
				return Reply{}, err
			}
			continue
		}

		chunk, ok := ExtractReply([]byte(payload))
		if !ok {
			continue
		}
		if found := chunk.SuggestedActions; len(found) > 0 {
			actions = found
		}
		if chunk.Text == "" {
			continue
		}
		if err := emit(chunk.Text); err != nil {
			return Reply{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return Reply{}, fmt.Errorf("scan agent stream failed: %w", err)
	}

	return Reply{Text: strings.TrimSpace(full.String()), SuggestedActions: actions}, nil
}

// Ping probes the runtime's app listing to check reachability.
func (c *Client) Ping(ctx context.Context) error {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/list-apps"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build agent ping request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent ping failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("agent ping status %d", resp.StatusCode)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
