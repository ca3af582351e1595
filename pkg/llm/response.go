package llm

import (
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the start of LLM responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// CleanResponse normalizes a raw model reply into usable text.
// Reasoning models prepend a <think> block and most models wrap code in
// markdown fences; both are stripped. The opening fence line is dropped
// whatever its language tag, and a closing fence line is dropped when
// present.
func CleanResponse(raw string) string {
	cleaned := strings.TrimSpace(thinkTagPattern.ReplaceAllString(raw, ""))
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		lines = lines[1:]
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		cleaned = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return cleaned
}
