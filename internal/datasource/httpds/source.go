package httpds

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Source reads one remote table. It satisfies datasource.Source.
type Source struct {
	c   *Client
	url string
}

// NewSource returns a Source fetching rawURL with c.
func NewSource(c *Client, rawURL string) *Source { return &Source{c: c, url: rawURL} }

// Name returns the URL.
func (s *Source) Name() string { return s.url }

// Open starts the download. A URL whose path ends in ".gz" is decompressed
// unless the server already applied a transfer encoding.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.c.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if !gzipped(s.url) || resp.Uncompressed {
		return resp.Body, nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("gzip %s: %w", s.url, err)
	}
	return &gzipBody{Reader: zr, body: resp.Body}, nil
}

// IsURL reports whether path is an http or https URL.
func IsURL(path string) bool {
	u, err := url.Parse(path)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func gzipped(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".gz")
}

type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (g *gzipBody) Close() error {
	zerr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return err
	}
	return zerr
}
