// Package calstore reads product pages and search results of the ticket vendor.
package calstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/showaudit/internal/layout"
	"github.com/wonny/showaudit/pkg/httputil"
	"github.com/wonny/showaudit/pkg/logger"
)

// Client reads the vendor site
// ⭐ SSOT: vendor requests and markup parsing live here
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	layout     *layout.Layout
	baseURL    string
	skipMarker string
}

// NewClient creates a vendor client reading pages with the given layout (nil for the default).
// Pages containing skipMarker are reported as skipped.
func NewClient(httpClient *httputil.Client, log *logger.Logger, lay *layout.Layout, baseURL, skipMarker string) *Client {
	if lay == nil {
		lay = layout.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		layout:     lay,
		baseURL:    strings.TrimRight(baseURL, "/"),
		skipMarker: skipMarker,
	}
}

// fetchHTML fetches a page and returns its body and the final URL after redirects
func (c *Client) fetchHTML(ctx context.Context, rawURL string) ([]byte, *url.URL, error) {
	body, resp, err := c.httpClient.GetBody(ctx, rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	if resp.Request != nil && resp.Request.URL != nil {
		return body, resp.Request.URL, nil
	}
	final, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	return body, final, nil
}

// resolve turns a link found on the site into an absolute URL
func (c *Client) resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	if base == nil {
		if base, err = url.Parse(c.baseURL + "/"); err != nil {
			return "", err
		}
	}
	return base.ResolveReference(ref).String(), nil
}
