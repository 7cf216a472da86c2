package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestLoad_EmptyPath(t *testing.T) {
	l, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), l)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeFile(t, `
product:
  title: ["h1.product-title"]
  rows: "table.stock tr.row"
search:
  links: "a.result"
`)

	l, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"h1.product-title"}, l.Product.Title)
	assert.Equal(t, "table.stock tr.row", l.Product.Rows)
	assert.Equal(t, "a.result", l.Search.Links)
	// untouched keys keep their defaults
	assert.Equal(t, "input.show_hidden_all_halls", l.Product.HiddenHalls)
	assert.Equal(t, "search_key", l.Search.Param)
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeFile(t, `
product:
  rowz: "tr"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptySelector(t *testing.T) {
	path := writeFile(t, `
product:
  rows: ""
`)
	_, err := Load(path)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "product.rows", verr.Field)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_TitleSelectors(t *testing.T) {
	l := Default()
	l.Product.Title = nil
	assert.Error(t, Validate(l))

	l.Product.Title = []string{"h2", ""}
	var verr ValidationError
	require.True(t, errors.As(Validate(l), &verr))
	assert.Equal(t, "product.title[1]", verr.Field)
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, _ := Hash(Default())
	assert.Equal(t, a, b, "hash not deterministic")

	changed := Default()
	changed.Product.Rows = "tr"
	c, _ := Hash(changed)
	assert.NotEqual(t, a, c)
}
