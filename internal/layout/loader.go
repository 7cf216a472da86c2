package layout

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidationError reports a missing or unusable layout field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a YAML layout file on top of Default. An empty path returns Default.
// Unknown keys are rejected so a typo never silently falls back to a stale selector.
func Load(path string) (*Layout, error) {
	l := Default()
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(l); err != nil {
		return nil, fmt.Errorf("decode layout %s: %w", path, err)
	}

	if err := Validate(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks that every selector the page reader needs is set
func Validate(l *Layout) error {
	if len(l.Product.Title) == 0 {
		return ValidationError{"product.title", "at least one selector required"}
	}
	for i, sel := range l.Product.Title {
		if sel == "" {
			return ValidationError{fmt.Sprintf("product.title[%d]", i), "empty selector"}
		}
	}

	required := []struct {
		field string
		value string
	}{
		{"product.hidden_halls", l.Product.HiddenHalls},
		{"product.hidden_dates", l.Product.HiddenDates},
		{"product.rows", l.Product.Rows},
		{"product.stock_attr", l.Product.StockAttr},
		{"product.hall_attr", l.Product.HallAttr},
		{"product.date_show_attr", l.Product.DateShowAttr},
		{"search.param", l.Search.Param},
		{"search.links", l.Search.Links},
	}
	for _, r := range required {
		if r.value == "" {
			return ValidationError{r.field, "required"}
		}
	}
	return nil
}

// Hash identifies a layout revision; logged with each run so a report can be
// tied to the selectors that produced it
func Hash(l *Layout) (string, error) {
	jsonBytes, err := json.Marshal(l)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
