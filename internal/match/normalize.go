package match

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid marks user input that cannot be parsed into the expected value.
// The caller re-prompts; nothing is recorded.
var ErrInvalid = errors.New("invalid input")

const (
	ClassMin = 1
	ClassMax = 11
)

var integerRe = regexp.MustCompile(`\d+`)

// NormalizeName lowercases, trims and collapses internal whitespace, and
// folds ё to е so that spelling variants compare equal.
func NormalizeName(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	name := strings.Join(fields, " ")

	return strings.ReplaceAll(name, "ё", "е")
}

// TokenSet splits a normalized name into an unordered set of tokens, so
// "Иванов Иван" and "Иван Иванов" compare equal.
func TokenSet(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(NormalizeName(name)) {
		set[token] = struct{}{}
	}

	return set
}

// ParseYear extracts the first integer run from free text ("примерно 2015
// год" -> 2015) and checks it against the configured historical range.
func ParseYear(raw string, minYear, maxYear int) (int, error) {
	token := integerRe.FindString(raw)
	if token == "" {
		return 0, ErrInvalid
	}

	year, err := strconv.Atoi(token)
	if err != nil || year < minYear || year > maxYear {
		return 0, ErrInvalid
	}

	return year, nil
}

// ParseClass extracts the first integer run from free text ("в 5-м классе"
// -> 5). Anything outside 1-11 is invalid.
func ParseClass(raw string) (int, error) {
	token := integerRe.FindString(raw)
	if token == "" {
		return 0, ErrInvalid
	}

	class, err := strconv.Atoi(token)
	if err != nil || class < ClassMin || class > ClassMax {
		return 0, ErrInvalid
	}

	return class, nil
}

// ParseTriple accepts the whole name/year/class triple in one message.
// Two formats are recognized: colon-labelled lines
//
//	ФИО: Иванов Иван
//	Год: 2015
//	Класс: 3
//
// and a single line like "Федоров Сергей 2010 2". Returns ok=false when the
// text does not contain a complete triple.
func ParseTriple(text string, minYear, maxYear int) (name string, year, class int, ok bool) {
	if name, year, class, ok = parseLabelled(text, minYear, maxYear); ok {
		return name, year, class, true
	}

	return parseInline(text, minYear, maxYear)
}

var nameKeys = map[string]bool{
	"фио":         true,
	"фамилия имя": true,
	"имя фамилия": true,
	"fio":         true,
}

var yearKeys = map[string]bool{
	"год":         true,
	"год выпуска": true,
	"year":        true,
}

var classKeys = map[string]bool{
	"класс":  true,
	"class":  true,
	"группа": true,
}

func parseLabelled(text string, minYear, maxYear int) (string, int, int, bool) {
	var name, rawYear, rawClass string

	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch {
		case nameKeys[key]:
			name = value
		case yearKeys[key]:
			rawYear = value
		case classKeys[key]:
			rawClass = value
		}
	}

	if name == "" || rawYear == "" || rawClass == "" {
		return "", 0, 0, false
	}

	year, err := ParseYear(rawYear, minYear, maxYear)
	if err != nil {
		return "", 0, 0, false
	}

	class, err := ParseClass(rawClass)
	if err != nil {
		return "", 0, 0, false
	}

	return name, year, class, true
}

func parseInline(text string, minYear, maxYear int) (string, int, int, bool) {
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return "", 0, 0, false
	}

	var (
		year, class int
		nameParts   []string
	)

	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			nameParts = append(nameParts, part)
			continue
		}

		switch {
		case len(part) == 4 && n >= minYear && n <= maxYear:
			year = n
		case len(part) <= 2 && n >= ClassMin && n <= ClassMax:
			class = n
		default:
			nameParts = append(nameParts, part)
		}
	}

	if year == 0 || class == 0 || len(nameParts) < 2 {
		return "", 0, 0, false
	}

	return strings.Join(nameParts, " "), year, class, true
}
