package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseFieldJSON parses the JSON response from a vision model into an
// ordered field table. Missing fields are kept with empty values so the
// rendered table always has the same shape.
func parseFieldJSON(text string) (FieldTable, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	table := make(FieldTable, 0, len(FieldNames))
	for _, name := range FieldNames {
		table = append(table, Field{Name: name, Value: stringValue(raw[name])})
	}
	return table, nil
}

// stringValue normalizes a decoded JSON value. Models occasionally return
// numbers or null for fields that should be strings.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
