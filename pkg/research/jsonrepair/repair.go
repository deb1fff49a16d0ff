package jsonrepair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Decode extracts and parses the first JSON object embedded in an LLM
// response. Models frequently wrap JSON in prose or markdown fences, emit
// trailing commas, or get truncated mid-object; Decode runs a staged repair
// before giving up so callers can fail closed on a single error path.
func Decode(content string, target interface{}) error {
	candidate := extractObject(content)
	if candidate == "" {
		return fmt.Errorf("no JSON object found in content")
	}

	if err := json.Unmarshal([]byte(candidate), target); err == nil {
		return nil
	}

	repaired := normalize(candidate)
	if err := json.Unmarshal([]byte(repaired), target); err == nil {
		return nil
	}

	repaired = insertMissingCommas(repaired)
	if err := json.Unmarshal([]byte(repaired), target); err == nil {
		return nil
	}

	repaired = recoverTruncation(repaired)
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("JSON repair failed: %w", err)
	}
	return nil
}

// extractObject returns the substring from the first '{' to the last '}'.
// When the closing brace is missing entirely (hard truncation) everything
// from the first brace onward is returned for the later repair stages.
func extractObject(content string) string {
	start := strings.Index(content, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(content, "}")
	if end < start {
		return content[start:]
	}
	return content[start : end+1]
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	missingCommaRe  = regexp.MustCompile(`([}\]"])\s*\n\s*(["{\[])`)
)

// normalize collapses exotic whitespace and removes trailing commas, the two
// most common defects in model-emitted JSON.
func normalize(candidate string) string {
	s := strings.ReplaceAll(candidate, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return s
}

// insertMissingCommas adds a comma where two values are separated only by a
// newline, a defect that shows up when the model drops separators between
// array elements.
func insertMissingCommas(candidate string) string {
	return missingCommaRe.ReplaceAllString(candidate, "$1,\n$2")
}

// recoverTruncation closes a JSON document that was cut off mid-stream: an
// unterminated string is closed, a dangling comma dropped, and any brackets
// still open are closed in reverse order.
func recoverTruncation(candidate string) string {
	var stack []rune
	inString := false
	escaped := false

	for _, r := range candidate {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
			// string content, ignore structural characters
		case r == '{' || r == '[':
			stack = append(stack, r)
		case r == '}' || r == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	s := candidate
	if inString {
		s += `"`
	}
	s = strings.TrimRight(s, " \n\r\t")
	s = strings.TrimSuffix(s, ",")

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}
