package archive

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"bike-dash/internal/domain"
)

var _ domain.ArchiveSource = (*HTTPSource)(nil)

// NewHTTPClient returns a client whose dial, TLS handshake, and response
// header waits are bounded by timeout. Body reads are not bounded so large
// archives can stream to completion.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          10,
		},
	}
}

// HTTPSource discovers archives through the anchors of an HTML index page.
type HTTPSource struct {
	indexURL string
	client   *http.Client
}

// NewHTTPSource creates a source for the index page at indexURL.
func NewHTTPSource(indexURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{indexURL: indexURL, client: client}
}

// Location returns the index URL.
func (s *HTTPSource) Location() string { return s.indexURL }

// List fetches the index page and returns the absolute archive URLs.
func (s *HTTPSource) List(ctx context.Context) ([]string, error) {
	base, err := url.Parse(s.indexURL)
	if err != nil {
		return nil, domain.ErrValidation("invalid archive index URL %q: %v", s.indexURL, err)
	}

	body, _, err := s.get(ctx, s.indexURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	links, err := ParseIndexLinks(body, base, ArchiveSuffix)
	if err != nil {
		return nil, &domain.FetchError{URL: s.indexURL, Err: err}
	}
	return links, nil
}

// Open streams one archive.
func (s *HTTPSource) Open(ctx context.Context, link string) (io.ReadCloser, int64, error) {
	return s.get(ctx, link)
}

func (s *HTTPSource) get(ctx context.Context, target string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, domain.ErrValidation("invalid URL %q: %v", target, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, &domain.FetchError{URL: target, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, 0, &domain.FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}
	return resp.Body, resp.ContentLength, nil
}
