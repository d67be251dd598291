package bot

import "strings"

// defaultForbiddenWords is the built-in profile screening list. Extra words
// come from the FORBIDDEN_WORDS config variable.
var defaultForbiddenWords = []string{
	"хуй", "пизда", "блять", "блядь", "ебать", "сука", "пиздец", "еблан",
	"мудак", "мудила", "говнюк", "дебил", "придурок",
	"fuck", "shit", "bitch", "whore", "slut", "cunt", "asshole",
	"bastard", "motherfucker", "retard",
}

// Screen checks applicant profile fields (name, surname, username) for words
// that have no place in an alumni chat. Hits are reported to the operator
// and the applicant is asked to fix the profile.
type Screen struct {
	words []string
}

func NewScreen(extra []string) *Screen {
	words := make([]string, 0, len(defaultForbiddenWords)+len(extra))
	words = append(words, defaultForbiddenWords...)
	for _, w := range extra {
		if w = strings.TrimSpace(strings.ToLower(w)); w != "" {
			words = append(words, w)
		}
	}

	return &Screen{words: words}
}

// Check returns every forbidden word found across the given fields.
func (s *Screen) Check(fields ...string) []string {
	var found []string

	for _, field := range fields {
		if field == "" {
			continue
		}
		lower := strings.ToLower(field)
		for _, word := range s.words {
			if strings.Contains(lower, word) {
				found = append(found, word)
			}
		}
	}

	return found
}
