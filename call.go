package jsonp

import (
	"context"
	"sync"
)

// Call is the single-assignment result of one request. It settles exactly
// once: with the payload the remote script passed to its callback, or with
// an error.
type Call struct {
	id       string
	callback string
	src      string

	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func newCall(id, callback, src string) *Call {
	return &Call{
		id:       id,
		callback: callback,
		src:      src,
		done:     make(chan struct{}),
	}
}

// ID identifies the request; it is also set on the script element.
func (c *Call) ID() string { return c.id }

// Callback is the global function name the remote script must invoke.
func (c *Call) Callback() string { return c.callback }

// URL is the fully composed script source.
func (c *Call) URL() string { return c.src }

// Done is closed once the call settles.
func (c *Call) Done() <-chan struct{} { return c.done }

// Wait blocks until the call settles or ctx is done. A ctx ending here
// does not cancel the request; use the ctx given to Request for that.
func (c *Call) Wait(ctx context.Context) (any, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the settled value without blocking. It returns (nil, nil)
// while the call is pending, which is also what a callback invoked with
// null or no argument settles to; check Done before relying on it.
func (c *Call) Result() (any, error) {
	select {
	case <-c.done:
		return c.value, c.err
	default:
		return nil, nil
	}
}

func (c *Call) settle(value any, err error) bool {
	settled := false
	c.once.Do(func() {
		c.value, c.err = value, err
		close(c.done)
		settled = true
	})
	return settled
}
