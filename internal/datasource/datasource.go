// Package datasource defines how importers obtain raw input bytes.
package datasource

import (
	"context"
	"io"

	"deload/internal/datasource/file"
	"deload/internal/datasource/httpds"
)

// Source opens one input table for reading. Callers must Close the result.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// For returns an HTTP source when path is an http(s) URL and a local file
// source otherwise. client may be nil; a default client with two retries is
// used then.
func For(path string, client *httpds.Client) Source {
	if httpds.IsURL(path) {
		if client == nil {
			client = httpds.NewClient(httpds.Config{MaxRetries: 2})
		}
		return httpds.NewSource(client, path)
	}
	return file.NewLocal(path)
}
