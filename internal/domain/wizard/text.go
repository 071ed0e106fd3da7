package wizard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	blankLines  = regexp.MustCompile(`\n{3,}`)
)

// StripEmbeddedJSON removes JSON objects the model duplicated inside the prose prompt.
// Fenced blocks are removed when their body is valid JSON; bare {...} runs are removed
// when they parse as a JSON object. Braces that are not JSON, like "{name}", stay.
func StripEmbeddedJSON(prompt string) string {
	out := fencedBlock.ReplaceAllStringFunc(prompt, func(block string) string {
		body := fencedBlock.FindStringSubmatch(block)[1]
		if gjson.Valid(strings.TrimSpace(body)) {
			return ""
		}
		return block
	})

	var b strings.Builder
	for i := 0; i < len(out); {
		if out[i] == '{' {
			if end := matchBrace(out, i); end != -1 {
				candidate := out[i : end+1]
				if gjson.Valid(candidate) && gjson.Parse(candidate).IsObject() {
					i = end + 1
					continue
				}
			}
		}
		b.WriteByte(out[i])
		i++
	}

	cleaned := blankLines.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(cleaned)
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON strings are ignored.
func matchBrace(s string, start int) int {
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

var contextLabels = map[string]string{
	"race":       "Race",
	"archetype":  "Archetype",
	"profession": "Profession",
	"name":       "Name",
}

// ContextSummary renders committed context as plain text, step keys first in step order
func ContextSummary(ctx map[string]any) string {
	if len(ctx) == 0 {
		return "No choices have been locked yet."
	}

	var lines []string
	seen := make(map[string]bool)
	for _, step := range Steps {
		key := ContextKey(step)
		if key == "" {
			continue
		}
		value, ok := ctx[key]
		if !ok || value == nil {
			continue
		}
		seen[key] = true
		lines = append(lines, fmt.Sprintf("%s: %s", contextLabels[key], describeValue(value)))
	}

	extra := make([]string, 0, len(ctx))
	for key := range ctx {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		if ctx[key] == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", key, describeValue(ctx[key])))
	}

	if len(lines) == 0 {
		return "No choices have been locked yet."
	}
	return strings.Join(lines, "\n")
}

func describeValue(value any) string {
	if preview, ok := PreviewFromValue(value); ok {
		desc := preview.Name
		if preview.Lore != "" {
			desc += " (" + preview.Lore + ")"
		}
		if len(preview.Abilities) > 0 {
			desc += "; abilities: " + strings.Join(preview.Abilities, ", ")
		}
		if preview.StarterWeapon != "" {
			desc += "; starter weapon: " + preview.StarterWeapon
		}
		return desc
	}
	return fmt.Sprint(value)
}
