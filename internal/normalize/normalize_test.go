package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDigits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"shekel price", "₪50", "50"},
		{"thousands separator", "₪1,250.00", "125000"},
		{"digits in order", "a1b2c3", "123"},
		{"no digits", "free entry", ""},
		{"empty", "", ""},
		{"only digits", "90", "90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDigits(tt.input))
		})
	}
}

func TestFirstNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"seats left", "12 seats left", "12"},
		{"leading text", "only 7 left of 120", "7"},
		{"hebrew button text", "הזמן 13 מקומות", "13"},
		{"no number", "sold out", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstNumber(tt.input))
		})
	}
}

func TestSplitDateTimeHall(t *testing.T) {
	tests := []struct {
		name              string
		input             string
		date, clock, hall string
	}{
		{"full with multi-word hall", "15/03/2025 20:00 Main Hall", "15/03/2025", "20:00", "Main Hall"},
		{"hall keeps inner words", "D T H1 H2", "D", "T", "H1 H2"},
		{"date and time only", "D T", "D", "T", ""},
		{"date only", "D", "D", "", ""},
		{"surrounding whitespace", "  15/03/2025\t20:00   Hall A  ", "15/03/2025", "20:00", "Hall A"},
		{"empty", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, clock, hall := SplitDateTimeHall(tt.input)
			assert.Equal(t, tt.date, date)
			assert.Equal(t, tt.clock, clock)
			assert.Equal(t, tt.hall, hall)
		})
	}
}

func TestSplitDateTime(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		date, clock string
		ok          bool
	}{
		{"drops seconds", "15/03/2025 20:00:00", "15/03/2025", "20:00", true},
		{"no seconds", "15/03/2025 20:00", "15/03/2025", "20:00", true},
		{"short time kept", "15/03/2025 9:30", "15/03/2025", "9:30", true},
		{"no space", "15/03/2025", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, clock, ok := SplitDateTime(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.date, date)
			assert.Equal(t, tt.clock, clock)
		})
	}
}

func TestUnescapeAndParseJSON(t *testing.T) {
	raw := `[{&quot;d_hall_id&quot;:&quot;7&quot;,&quot;hall_area_name&quot;:&quot;Main Hall&quot;},{&quot;d_hall_id&quot;:8,&quot;area&quot;:&quot;Balcony&quot;}]`

	items, err := UnescapeAndParseJSON(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "7", StringField(items[0], "d_hall_id"))
	assert.Equal(t, "Main Hall", StringField(items[0], "hall_area_name"))
	assert.Equal(t, "8", StringField(items[1], "d_hall_id"))
	assert.Equal(t, "", StringField(items[1], "hall_area_name"))
}

func TestUnescapeAndParseJSON_Blank(t *testing.T) {
	for _, raw := range []string{"", "   ", "[]", "null"} {
		items, err := UnescapeAndParseJSON(raw)
		assert.NoError(t, err, raw)
		assert.Empty(t, items, raw)
	}
}

func TestUnescapeAndParseJSON_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"truncated string", `[{"d_hall_id":"7","hall_area_name":"Main`},
		{"not an array", `{"d_hall_id":"7"}`},
		{"trailing data", `[] []`},
		{"garbage", `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := UnescapeAndParseJSON(tt.raw)
			require.Error(t, err)
			assert.Nil(t, items)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.NotEmpty(t, perr.Snippet)
		})
	}
}

func TestParseError_SnippetTruncated(t *testing.T) {
	raw := "[" + strings.Repeat("x", 500)

	_, err := UnescapeAndParseJSON(raw)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, snippetLimit, len([]rune(perr.Snippet)))
	assert.Contains(t, perr.Error(), "json parse failed")
}

func TestParseError_ShortSnippetMessage(t *testing.T) {
	_, err := UnescapeAndParseJSON(`[{"a":`)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, `[{"a":`, perr.Snippet)
	assert.Contains(t, err.Error(), `near "[{\"a\":"`)
	assert.NotContains(t, err.Error(), "200")
}

func TestStringField(t *testing.T) {
	obj := map[string]any{
		"s":    "  Hall  ",
		"null": nil,
		"flag": true,
	}

	assert.Equal(t, "Hall", StringField(obj, "s"))
	assert.Equal(t, "", StringField(obj, "null"))
	assert.Equal(t, "", StringField(obj, "missing"))
	assert.Equal(t, "true", StringField(obj, "flag"))
}
