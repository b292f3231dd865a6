package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractErrorMessage pulls the most specific human-readable message out of a
// stream source error. Provider errors often embed a JSON object in the error
// text; when one is present (delimited by the first "{" and the last "}"),
// a "message" field is preferred, directly or under an "error" wrapper.
// Otherwise the raw text is returned, falling back to a stringified form.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	raw := err.Error()

	if msg, ok := embeddedJSONMessage(raw); ok {
		return msg
	}
	if raw != "" {
		return raw
	}
	return fmt.Sprintf("%v", err)
}

// embeddedJSONMessage parses the {...} region of s, if any, and looks for a
// message one or two levels deep.
func embeddedJSONMessage(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(s[start:end+1]), &payload); err != nil {
		return "", false
	}

	if msg, ok := payload["message"].(string); ok && msg != "" {
		return msg, true
	}
	if wrapper, ok := payload["error"].(map[string]any); ok {
		if msg, ok := wrapper["message"].(string); ok && msg != "" {
			return msg, true
		}
	}
	return "", false
}
