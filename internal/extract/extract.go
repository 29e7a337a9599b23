// Package extract isolates the fenced code block from a model reply.
package extract

import "strings"

// Fence is the delimiter that brackets a code block in model output.
const Fence = "```"

// Clean returns the text strictly between the first and second fence in raw.
// An opening fence directly followed by a language tag and a line break owns
// both, so "```cpp\nX\n```" yields "X\n". With fewer than two fences the
// result is empty: prose-only replies surface downstream as a compile failure
// on empty input.
func Clean(raw string) string {
	open := strings.Index(raw, Fence)
	if open < 0 {
		return ""
	}
	body := raw[open+len(Fence):]

	end := strings.Index(body, Fence)
	if end < 0 {
		return ""
	}

	if nl := strings.IndexByte(body, '\n'); nl >= 0 && nl < end && isInfoString(strings.TrimSuffix(body[:nl], "\r")) {
		return body[nl+1 : end]
	}
	return body[:end]
}

// Count reports how many fence delimiters raw contains.
func Count(raw string) int {
	return strings.Count(raw, Fence)
}

func isInfoString(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '+', r == '#', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}
