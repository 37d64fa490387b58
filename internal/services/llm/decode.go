package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSONContent unmarshals model output into target, tolerating the
// usual formatting slop: Markdown code fences and prose wrapped around the
// JSON value. Callers that need strict parsing should unmarshal the content
// themselves instead.
func DecodeJSONContent(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	direct := json.Unmarshal([]byte(trimmed), target)
	if direct == nil {
		return nil
	}

	extracted := extractJSONValue(trimmed)
	if extracted == "" || extracted == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", direct, payloadSnippet(trimmed))
	}
	if err := json.Unmarshal([]byte(extracted), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, payloadSnippet(extracted))
	}
	return nil
}

// extractJSONValue strips a surrounding Markdown fence and then slices out
// the outermost JSON object or array. Returns the input unchanged when no
// narrower candidate is found.
func extractJSONValue(content string) string {
	trimmed := strings.TrimSpace(stripFence(content))
	if trimmed == "" || trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(trimmed, pair[0])
		end := strings.LastIndex(trimmed, pair[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// payloadSnippet flattens content to a single line bounded to 160 runes for
// use in error messages.
func payloadSnippet(content string) string {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "<empty>"
	}
	clean := strings.Join(fields, " ")
	if runes := []rune(clean); len(runes) > 160 {
		clean = string(runes[:160]) + "..."
	}
	return clean
}
