package gemini

import (
	"regexp"
	"strings"
)

var trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)

// ExtractJSONArray slices the first JSON array out of model output. Models
// wrap JSON in prose or code fences often enough that callers must not feed
// the raw text straight to the parser.
func ExtractJSONArray(raw string) string {
	raw = stripFences(raw)

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return trailingCommaRe.ReplaceAllString(raw[start:end+1], "$1")
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
