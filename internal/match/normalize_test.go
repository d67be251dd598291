package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "иванов иван", NormalizeName("  Иванов   Иван "))
	assert.Equal(t, "семенов петр", NormalizeName("Семёнов Пётр"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestTokenSet(t *testing.T) {
	a := TokenSet("Иванов Иван")
	b := TokenSet("иван  ИВАНОВ")

	assert.Equal(t, a, b)
	assert.Len(t, a, 2)
	assert.Contains(t, a, "иванов")
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  int
		valid bool
	}{
		{"plain", "2015", 2015, true},
		{"inside free text", "примерно 2015 год", 2015, true},
		{"no digits", "abc", 0, false},
		{"below range", "1940", 0, false},
		{"above range", "2050", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, err := ParseYear(tt.raw, 1950, 2030)
			if !tt.valid {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, year)
		})
	}
}

func TestParseClass(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  int
		valid bool
	}{
		{"plain", "5", 5, true},
		{"inside free text", "в 5-м классе", 5, true},
		{"upper bound", "11", 11, true},
		{"out of bound", "15", 0, false},
		{"zero", "0", 0, false},
		{"no digits", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, err := ParseClass(tt.raw)
			if !tt.valid {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, class)
		})
	}
}

func TestParseTriple_Inline(t *testing.T) {
	name, year, class, ok := ParseTriple("Федоров Сергей 2010 2", 1950, 2030)

	require.True(t, ok)
	assert.Equal(t, "Федоров Сергей", name)
	assert.Equal(t, 2010, year)
	assert.Equal(t, 2, class)
}

func TestParseTriple_Labelled(t *testing.T) {
	text := "ФИО: Иванов Иван\nГод: 2015\nКласс: 3"

	name, year, class, ok := ParseTriple(text, 1950, 2030)

	require.True(t, ok)
	assert.Equal(t, "Иванов Иван", name)
	assert.Equal(t, 2015, year)
	assert.Equal(t, 3, class)
}

func TestParseTriple_Incomplete(t *testing.T) {
	for _, text := range []string{
		"",
		"Иван Петров",
		"Иван Петров 2015",
		"2015 5",
		"ФИО: Иванов Иван\nГод: 2015",
		"привет, как дела?",
	} {
		_, _, _, ok := ParseTriple(text, 1950, 2030)
		assert.False(t, ok, "expected no triple in %q", text)
	}
}
