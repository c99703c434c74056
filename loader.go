package jsonp

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxScriptBytes caps a script body when no limit is configured.
const DefaultMaxScriptBytes int64 = 4 << 20

// Loader fetches the body of a script resource.
type Loader interface {
	Load(ctx context.Context, src string) ([]byte, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, src string) ([]byte, error)

func (f LoaderFunc) Load(ctx context.Context, src string) ([]byte, error) { return f(ctx, src) }

// HTTPLoader loads scripts with a plain GET: no body, no custom headers.
type HTTPLoader struct {
	Client   *http.Client
	MaxBytes int64
}

func (l *HTTPLoader) Load(ctx context.Context, src string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxScriptBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("script exceeds %d bytes", limit)
	}
	return body, nil
}
