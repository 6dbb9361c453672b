package templates

import (
	"encoding/json"
	"fmt"
)

// ParseTemplateData decodes a JSON object of static template variables. An
// empty string yields an empty map.
func ParseTemplateData(data string) (map[string]any, error) {
	result := map[string]any{}
	if data == "" {
		return result, nil
	}
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to parse template data: %w", err)
	}
	return result, nil
}

// CloneTemplateData returns a shallow copy so per-message values never leak
// into the shared base.
func CloneTemplateData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
