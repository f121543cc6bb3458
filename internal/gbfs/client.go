package gbfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bike-dash/internal/domain"
)

// maxDocumentSize bounds a single feed document.
const maxDocumentSize = 32 << 20

// Client fetches GBFS documents.
type Client struct {
	http   *http.Client
	locale string
}

// NewClient creates a client whose requests fail after timeout. locale
// selects the preferred language group; empty means the first one.
func NewClient(timeout time.Duration, locale string) *Client {
	return &Client{http: &http.Client{Timeout: timeout}, locale: locale}
}

// NewClientWithHTTP creates a client that sends requests through hc.
func NewClientWithHTTP(hc *http.Client, locale string) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc, locale: locale}
}

// Index fetches and decodes the feed index at url.
func (c *Client) Index(ctx context.Context, url string) (*FeedIndex, error) {
	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	ix, err := ParseIndex(data, c.locale)
	if err != nil {
		return nil, fmt.Errorf("feed index %s: %w", url, err)
	}
	return ix, nil
}

// Stations fetches a station feed and decodes it into a table.
func (c *Client) Stations(ctx context.Context, url string) (*domain.Table, error) {
	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	t, err := ParseStations(data, c.locale)
	if err != nil {
		return nil, domain.ErrMalformed(url, err)
	}
	return t, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.ErrValidation("invalid feed URL %q: %v", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.FetchError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	return data, nil
}
