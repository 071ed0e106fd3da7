package intent

import (
	"strings"
	"unicode"
)

type keywordRule struct {
	kind Kind
	// substrings match anywhere in the text
	substrings []string
	// words only match a whole word, so "cast" does not fire on "castle"
	words []string
}

// Evaluated in order; the first rule with a match wins.
// Combat is checked before movement because "go" hides inside words like "goblin".
var keywordRules = []keywordRule{
	{kind: KindCombatAction, substrings: []string{"attack", "strike", "fight"}, words: []string{"cast", "casts"}},
	{kind: KindDialogue, substrings: []string{"say", "talk", "greet"}, words: []string{"ask", "asks"}},
	{kind: KindQuestAction, substrings: []string{"quest", "collect", "deliver"}},
	{kind: KindMove, substrings: []string{"move", "go", "walk", "travel"}, words: []string{"north", "south", "east", "west"}},
}

// Classify maps free text to an intent kind by keyword, defaulting to system_event
func Classify(text string) Kind {
	lower := strings.ToLower(text)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		words[w] = true
	}

	for _, rule := range keywordRules {
		for _, keyword := range rule.substrings {
			if strings.Contains(lower, keyword) {
				return rule.kind
			}
		}
		for _, keyword := range rule.words {
			if words[keyword] {
				return rule.kind
			}
		}
	}
	return KindSystemEvent
}
