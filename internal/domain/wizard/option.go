package wizard

import (
	"fmt"
	"strings"
)

// Option is a selectable answer for the current step
type Option struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

var (
	optionNameKeys        = []string{"name", "race", "title", "label"}
	optionDescriptionKeys = []string{"description", "desc"}
)

// NormalizeOption turns whatever the generator produced into an Option.
// Bare strings become {s, "", s}; objects alias name from name/race/title/label and
// description from description/desc. ok is false when no name can be found.
func NormalizeOption(raw any) (Option, bool) {
	switch v := raw.(type) {
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return Option{}, false
		}
		return Option{Name: name, Value: name}, true
	case Option:
		return normalizeFields(v.Name, v.Description, v.Value)
	case *Option:
		if v == nil {
			return Option{}, false
		}
		return normalizeFields(v.Name, v.Description, v.Value)
	case map[string]any:
		return normalizeFields(
			firstString(v, optionNameKeys),
			firstString(v, optionDescriptionKeys),
			firstString(v, []string{"value"}),
		)
	default:
		return Option{}, false
	}
}

// NormalizeOptions normalizes every entry and drops the ones without a name
func NormalizeOptions(raw []any) []Option {
	options := make([]Option, 0, len(raw))
	for _, item := range raw {
		if opt, ok := NormalizeOption(item); ok {
			options = append(options, opt)
		}
	}
	return options
}

// SelectionValue reduces a client selection to what gets staged or committed.
// Option-shaped objects collapse to their value; other values pass through.
func SelectionValue(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		return trimmed
	case map[string]any:
		if opt, ok := NormalizeOption(v); ok {
			return opt.Value
		}
		return v
	default:
		return v
	}
}

func normalizeFields(name, description, value string) (Option, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Option{}, false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = name
	}
	return Option{
		Name:        name,
		Description: strings.TrimSpace(description),
		Value:       value,
	}, true
}

func firstString(m map[string]any, keys []string) string {
	for _, key := range keys {
		raw, ok := m[key]
		if !ok || raw == nil {
			continue
		}
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case fmt.Stringer:
			s = v.String()
		case float64, int, bool:
			s = fmt.Sprint(v)
		default:
			continue
		}
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
