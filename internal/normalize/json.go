package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// snippetLimit bounds the raw text kept in a ParseError
const snippetLimit = 200

// ParseError reports a hidden JSON blob that could not be decoded.
// Callers treat it as an empty list.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("json parse failed: %v (near %q)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnescapeAndParseJSON HTML-unescapes raw (&quot; etc.) and decodes it as a
// JSON array of objects. Numbers are kept as json.Number so ids keep their text.
// Blank input is an empty list.
func UnescapeAndParseJSON(raw string) ([]map[string]any, error) {
	text := strings.TrimSpace(html.UnescapeString(raw))
	if text == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, &ParseError{Snippet: truncate(text, snippetLimit), Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Snippet: truncate(text, snippetLimit), Err: fmt.Errorf("trailing data after array")}
	}
	return items, nil
}

// StringField reads key from a decoded JSON object as text.
// Missing keys and null yield ""; numbers keep their literal form.
func StringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
