package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("```[a-zA-Z]*\\n?")

// StripFences removes markdown code fences such as ```json ... ``` so the
// reply can be parsed as JSON.
func StripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

// DecodeJSON strips fences and unmarshals into v. A *ParseError carrying the
// cleaned text is returned on failure.
func DecodeJSON(text string, v any) error {
	cleaned := StripFences(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ParseError{Raw: cleaned, Err: err}
	}
	return nil
}
