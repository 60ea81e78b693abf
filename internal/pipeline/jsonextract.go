package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONRe = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")
	bracedJSONRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON recovers a JSON object from free-form model output. Three
// strategies are tried in order, each validated before being accepted:
// a fenced ```json block, the outermost brace-delimited region, and
// finally the substring between the first '{' and the last '}'.
func ExtractJSON(text string) ([]byte, bool) {
	if candidate, ok := extractFencedJSON(text); ok {
		return candidate, true
	}
	if candidate, ok := extractBracedJSON(text); ok {
		return candidate, true
	}
	return extractSubstringJSON(text)
}

func extractFencedJSON(text string) ([]byte, bool) {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	candidate := []byte(strings.TrimSpace(m[1]))
	if !json.Valid(candidate) {
		return nil, false
	}
	return candidate, true
}

func extractBracedJSON(text string) ([]byte, bool) {
	m := bracedJSONRe.FindString(strings.TrimSpace(text))
	if m == "" {
		return nil, false
	}
	candidate := []byte(m)
	if !json.Valid(candidate) {
		return nil, false
	}
	return candidate, true
}

func extractSubstringJSON(text string) ([]byte, bool) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return nil, false
	}
	candidate := []byte(text[first : last+1])
	if !json.Valid(candidate) {
		return nil, false
	}
	return candidate, true
}
