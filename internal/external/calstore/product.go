package calstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/showaudit/internal/contracts"
)

// FetchProduct loads one product page and reads the title, hidden metadata and table rows
func (c *Client) FetchProduct(ctx context.Context, productURL string) (*contracts.ProductPage, error) {
	body, _, err := c.fetchHTML(ctx, productURL)
	if err != nil {
		return nil, err
	}

	page, err := c.parseProductPage(body)
	if err != nil {
		return nil, fmt.Errorf("parse product page %s: %w", productURL, err)
	}
	page.URL = productURL

	c.logger.WithFields(map[string]interface{}{
		"url":     productURL,
		"title":   page.Title,
		"rows":    len(page.Rows),
		"missing": page.Missing,
		"skipped": page.Skipped,
	}).Debug("Product page loaded")

	return page, nil
}

// parseProductPage reads a product page. Row cells keep their text content,
// so rows hidden by styling are read like visible ones.
func (c *Client) parseProductPage(body []byte) (*contracts.ProductPage, error) {
	page := &contracts.ProductPage{HTML: body}

	if c.skipMarker != "" && bytes.Contains(body, []byte(c.skipMarker)) {
		page.Skipped = true
		page.SkipReason = c.skipMarker
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	sel := c.layout.Product
	for _, titleSel := range sel.Title {
		if page.Title = strings.TrimSpace(doc.Find(titleSel).First().Text()); page.Title != "" {
			break
		}
	}

	for _, hidden := range []struct {
		selector string
		dst      *string
	}{
		{sel.HiddenHalls, &page.HallsRaw},
		{sel.HiddenDates, &page.DatesRaw},
	} {
		value, found := hiddenValue(doc, hidden.selector)
		if !found {
			page.Missing = append(page.Missing, hidden.selector)
		}
		*hidden.dst = value
	}

	doc.Find(sel.Rows).Each(func(_ int, tr *goquery.Selection) {
		row := contracts.RowDescriptor{
			StockID:  strings.TrimSpace(tr.AttrOr(sel.StockAttr, "")),
			HallID:   strings.TrimSpace(tr.AttrOr(sel.HallAttr, "")),
			DateShow: strings.TrimSpace(tr.AttrOr(sel.DateShowAttr, "")),
		}
		tr.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
			row.Cells = append(row.Cells, strings.TrimSpace(td.Text()))
		})
		page.Rows = append(page.Rows, row)
	})
	if len(page.Rows) == 0 {
		page.Missing = append(page.Missing, sel.Rows)
	}

	return page, nil
}

// hiddenValue returns the value attribute of a hidden input, "[]" when empty.
// found is false when the input is not on the page at all.
func hiddenValue(doc *goquery.Document, selector string) (value string, found bool) {
	input := doc.Find(selector).First()
	if input.Length() == 0 {
		return "[]", false
	}
	if value = strings.TrimSpace(input.AttrOr("value", "")); value == "" {
		return "[]", true
	}
	return value, true
}
