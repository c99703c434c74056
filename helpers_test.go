package jsonp

import (
	"context"
	"net/url"
	"testing"
	"time"
)

// callbackFrom extracts the callback name from a composed script URL.
func callbackFrom(t *testing.T, src string) string {
	t.Helper()
	u, err := url.Parse(src)
	if err != nil {
		t.Fatalf("parse src %q: %v", src, err)
	}
	return u.Query().Get("callback")
}

// respondWith returns a loader whose script calls back with the given
// JavaScript expression.
func respondWith(t *testing.T, expr string) Loader {
	return LoaderFunc(func(ctx context.Context, src string) ([]byte, error) {
		return []byte(callbackFrom(t, src) + "(" + expr + ");"), nil
	})
}

// scriptLoader returns a loader that serves a fixed script body.
func scriptLoader(body string) Loader {
	return LoaderFunc(func(ctx context.Context, src string) ([]byte, error) {
		return []byte(body), nil
	})
}

// hangingLoader never answers until the request releases its transport.
func hangingLoader() Loader {
	return LoaderFunc(func(ctx context.Context, src string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func waitCall(t *testing.T, call *Call) (any, error) {
	t.Helper()
	select {
	case <-call.Done():
		return call.Result()
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for call to settle")
		return nil, nil
	}
}

// assertReleased checks that nothing of a settled call is left behind.
func assertReleased(t *testing.T, client *Client) {
	t.Helper()
	if callbacks := client.Window().Callbacks(); len(callbacks) != 0 {
		t.Errorf("Expected no registered callbacks, got %v", callbacks)
	}
	if scripts := client.Window().Scripts(); len(scripts) != 0 {
		t.Errorf("Expected no scripts in head, got %v", scripts)
	}
	if pending := client.Pending(); len(pending) != 0 {
		t.Errorf("Expected no pending requests, got %d", len(pending))
	}
}
