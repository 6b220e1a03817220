package agent

import (
	"encoding/json"
	"strings"
)

// The runtime's response shape is not under our control and has changed
// between releases. ExtractReply probes a fixed list of shapes the runtime
// has been observed to produce, from the documented event list down to a raw
// text body, and returns the first hit.

type extractor struct {
	name string
	fn   func([]byte) (Reply, bool)
}

var extractors = []extractor{
	{"event_array", extractEventArray},
	{"events_wrapper", extractEventsWrapper},
	{"candidates", extractCandidates},
	{"single_event", extractSingleEvent},
	{"response_field", stringField("response")},
	{"text_field", stringField("text")},
	{"message_field", stringField("message")},
	{"output_field", stringField("output")},
	{"reply_field", stringField("reply")},
	{"raw_text", extractRawText},
}

// ExtractReply normalizes a runtime response body into a Reply. The second
// return is false when no probe matched.
func ExtractReply(raw []byte) (Reply, bool) {
	for _, e := range extractors {
		if reply, ok := e.fn(raw); ok {
			if len(reply.SuggestedActions) == 0 {
				reply.SuggestedActions = scanSuggestedActions(raw)
			}
			return reply, true
		}
	}
	return Reply{}, false
}

type eventContent struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type runtimeEvent struct {
	Author  string        `json:"author"`
	Content *eventContent `json:"content"`
	Partial bool          `json:"partial"`
}

// joinParts concatenates part text verbatim. Streamed deltas carry
// significant boundary whitespace, so no trimming happens here.
func (c *eventContent) joinParts() string {
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func (e *runtimeEvent) text() string {
	if e.Content == nil {
		return ""
	}
	return strings.TrimSpace(e.Content.joinParts())
}

// extractEventArray handles the documented shape: a top-level array of
// events, the final non-partial one carrying the assistant's full answer.
func extractEventArray(raw []byte) (Reply, bool) {
	var events []runtimeEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return Reply{}, false
	}

	text := ""
	for i := range events {
		if events[i].Partial {
			continue
		}
		if t := events[i].text(); t != "" {
			text = t
		}
	}
	if text == "" {
		return Reply{}, false
	}
	return Reply{Text: text}, true
}

func extractEventsWrapper(raw []byte) (Reply, bool) {
	var wrapper struct {
		Events json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || len(wrapper.Events) == 0 {
		return Reply{}, false
	}
	return extractEventArray(wrapper.Events)
}

// extractCandidates handles responses passed through unmodified from the
// underlying model API.
func extractCandidates(raw []byte) (Reply, bool) {
	var parsed struct {
		Candidates []struct {
			Content eventContent `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Candidates) == 0 {
		return Reply{}, false
	}

	event := runtimeEvent{Content: &parsed.Candidates[0].Content}
	text := event.text()
	if text == "" {
		return Reply{}, false
	}
	return Reply{Text: text}, true
}

func extractSingleEvent(raw []byte) (Reply, bool) {
	var event runtimeEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return Reply{}, false
	}
	text := event.text()
	if text == "" {
		return Reply{}, false
	}
	return Reply{Text: text}, true
}

// stringField probes a top-level string field, e.g. {"response": "..."}.
func stringField(key string) func([]byte) (Reply, bool) {
	return func(raw []byte) (Reply, bool) {
		var parsed map[string]json.RawMessage
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return Reply{}, false
		}
		fieldRaw, ok := parsed[key]
		if !ok {
			return Reply{}, false
		}
		var text string
		if err := json.Unmarshal(fieldRaw, &text); err != nil {
			return Reply{}, false
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return Reply{}, false
		}
		return Reply{Text: text}, true
	}
}

// extractRawText accepts a plain-text body, which older runtime builds
// returned for errors and occasionally for answers.
func extractRawText(raw []byte) (Reply, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return Reply{}, false
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return Reply{}, false
	}
	return Reply{Text: trimmed}, true
}

// scanSuggestedActions walks the decoded payload looking for a
// suggested_actions array of strings, wherever the runtime nested it.
func scanSuggestedActions(raw []byte) []string {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return findSuggestedActions(decoded, 0)
}

func findSuggestedActions(node interface{}, depth int) []string {
	if depth > 6 {
		return nil
	}
	switch v := node.(type) {
	case map[string]interface{}:
		if rawActions, ok := v["suggested_actions"]; ok {
			if actions := toStringSlice(rawActions); len(actions) > 0 {
				return actions
			}
		}
		for _, child := range v {
			if actions := findSuggestedActions(child, depth+1); len(actions) > 0 {
				return actions
			}
		}
	case []interface{}:
		for _, child := range v {
			if actions := findSuggestedActions(child, depth+1); len(actions) > 0 {
				return actions
			}
		}
	}
	return nil
}

func toStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	actions := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			actions = append(actions, s)
		}
	}
	return actions
}
