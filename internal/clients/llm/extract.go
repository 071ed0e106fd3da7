package llm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON pulls the first JSON object out of model text. Code fences and
// surrounding prose are tolerated.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("llm: empty output")
	}

	if gjson.Valid(trimmed) && gjson.Parse(trimmed).IsObject() {
		return trimmed, nil
	}

	if fenced, ok := fencedBlock(trimmed); ok && gjson.Valid(fenced) && gjson.Parse(fenced).IsObject() {
		return fenced, nil
	}

	for start := strings.IndexByte(trimmed, '{'); start >= 0; {
		if end := objectEnd(trimmed, start); end > start {
			candidate := trimmed[start : end+1]
			if gjson.Valid(candidate) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(trimmed[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return "", fmt.Errorf("llm: no JSON object in output")
}

func fencedBlock(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	rest := text[open+3:]
	if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
		// drop the language tag
		rest = rest[newline+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// objectEnd returns the index of the brace closing the object opened at start, or -1
func objectEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
