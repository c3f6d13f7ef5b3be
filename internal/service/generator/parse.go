package generator

import (
	"encoding/json"
	"log"
	"strings"
)

// Fallback values substituted for malformed or missing provider fields. A
// cosmetically degraded chapter beats losing the chapter to a parse failure.
const (
	FallbackNarrative = "Unable to generate narrative"
	FallbackTheme     = "Unknown"
)

// decodeResult turns a provider's raw text answer into a Result. Field-level
// damage (missing keys, nulls, or an answer that is not JSON at all) degrades
// to the fallback values instead of failing; only the transport layer decides
// whether a call failed outright.
func decodeResult(raw string) Result {
	var parsed struct {
		Narrative   *string  `json:"narrative"`
		Connections []string `json:"connections"`
		Tags        []string `json:"tags"`
		Theme       *string  `json:"theme"`
	}

	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		log.Printf("[generator] malformed provider payload, using fallbacks: %v", err)
	}

	result := Result{
		Narrative:   FallbackNarrative,
		Connections: []string{},
		Tags:        []string{},
		Theme:       FallbackTheme,
	}
	if parsed.Narrative != nil && *parsed.Narrative != "" {
		result.Narrative = *parsed.Narrative
	}
	if parsed.Connections != nil {
		result.Connections = parsed.Connections
	}
	if parsed.Tags != nil {
		result.Tags = parsed.Tags
	}
	if parsed.Theme != nil && *parsed.Theme != "" {
		result.Theme = *parsed.Theme
	}
	return result
}

// stripFences removes a markdown code fence some models wrap around JSON
// answers even when asked not to.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
