package calstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Locate searches the vendor for a show's short name and returns candidate product URLs.
// No results is an empty list, not an error.
func (c *Client) Locate(ctx context.Context, showName string) ([]string, error) {
	showName = strings.TrimSpace(showName)
	if showName == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set(c.layout.Search.Param, showName)
	searchURL := fmt.Sprintf("%s/?%s", c.baseURL, params.Encode())

	body, final, err := c.fetchHTML(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", showName, err)
	}

	if empty := c.layout.Search.EmptyValue; empty != "" && final.Query().Get(c.layout.Search.Param) == empty {
		c.logger.WithField("show", showName).Warn("Vendor search returned no results")
		return nil, nil
	}

	urls, err := c.parseSearchResults(body, final, showName)
	if err != nil {
		return nil, fmt.Errorf("parse search results for %q: %w", showName, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"show":       showName,
		"candidates": len(urls),
	}).Info("Located product pages")

	return urls, nil
}

// parseSearchResults keeps result links whose aria-label or result card text mentions showName
func (c *Client) parseSearchResults(body []byte, base *url.URL, showName string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	needle := normalizeName(showName)
	seen := make(map[string]bool)
	var urls []string

	doc.Find(c.layout.Search.Links).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		label := link.AttrOr("aria-label", "")
		var card string
		if c.layout.Search.Card != "" {
			card = link.Closest(c.layout.Search.Card).Text()
		}
		if !strings.Contains(normalizeName(label), needle) && !strings.Contains(normalizeName(card), needle) {
			return
		}

		abs, err := c.resolve(base, href)
		if err != nil {
			c.logger.WithError(err).WithField("href", href).Warn("Skipping unparseable result link")
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		urls = append(urls, abs)
	})

	return urls, nil
}

// normalizeName lowercases and drops all whitespace so matching tolerates spacing and case
func normalizeName(name string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(name), "")
}
