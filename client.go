package jsonp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Client issues JSONP requests into a Window and tracks the ones in flight
type Client struct {
	window *Window
	loader Loader
	logger *zap.Logger
	now    func() time.Time

	// timeoutMu protects timeout, which Install may change at any time
	timeoutMu sync.RWMutex
	// timeout applies to requests that do not set their own; zero means none
	timeout time.Duration

	// pending is keyed by request ID and guarded by window.mu
	pending map[string]*pendingCall
}

// pendingCall is the state of one in-flight request. Every field except
// call and aborted is guarded by the window mutex.
type pendingCall struct {
	call      *Call
	started   time.Time
	script    *html.Node
	timer     *time.Timer
	cancel    context.CancelFunc
	stopWatch func() bool
	settled   bool

	// aborted holds the first timer or ctx reason; it is read without the
	// window mutex so a script that is about to start can be stopped.
	aborted atomic.Pointer[error]
}

func (pc *pendingCall) abortReason() error {
	if reason := pc.aborted.Load(); reason != nil {
		return *reason
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithLoader replaces the HTTP loader used to fetch scripts.
func WithLoader(l Loader) Option { return func(c *Client) { c.loader = l } }

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

// WithTimeout sets the default timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithWindow makes the client share an existing page.
func WithWindow(w *Window) Option { return func(c *Client) { c.window = w } }

// WithClock overrides the time source used for callback names and
// signature timestamps.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// NewClient creates a client with its own Window unless one is given.
func NewClient(opts ...Option) *Client {
	c := &Client{
		loader:  &HTTPLoader{},
		logger:  zap.NewNop(),
		now:     time.Now,
		pending: make(map[string]*pendingCall),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("jsonp")
	if c.window == nil {
		c.window = NewWindow(c.logger)
	}
	return c
}

// Window returns the page requests are injected into.
func (c *Client) Window() *Window { return c.window }

// Timeout returns the default timeout.
func (c *Client) Timeout() time.Duration {
	c.timeoutMu.RLock()
	defer c.timeoutMu.RUnlock()
	return c.timeout
}

// SetTimeout changes the default timeout for later requests.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeoutMu.Lock()
	c.timeout = d
	c.timeoutMu.Unlock()
}

// Get issues a request and waits for it to settle.
func (c *Client) Get(ctx context.Context, rawURL string, params Params, timeout time.Duration) (any, error) {
	call, err := c.Request(ctx, rawURL, params, timeout)
	if err != nil {
		return nil, err
	}
	return call.Wait(ctx)
}

// Request injects a script for rawURL and returns immediately. Invalid
// input is reported synchronously, before any script exists. The returned
// Call settles exactly once with the callback payload, ErrRequestTimeout,
// ErrBadRequest or the error of ctx.
//
// A timeout of zero or less falls back to the client default; if that is
// zero too the request only ends by callback, load error or ctx.
func (c *Client) Request(ctx context.Context, rawURL string, params Params, timeout time.Duration) (*Call, error) {
	now := c.now()
	prepared, err := prepare(rawURL, params, now)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = c.Timeout()
	}

	w := c.window
	w.mu.Lock()
	defer w.mu.Unlock()

	for attempt := 1; w.inUse(prepared.callback); attempt++ {
		if !prepared.generated {
			return nil, fmt.Errorf("%w: %s", ErrCallbackInUse, prepared.callback)
		}
		if prepared, err = prepared.regenerate(params, now, attempt); err != nil {
			return nil, err
		}
	}

	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pc := &pendingCall{
		call:    newCall(uuid.New().String(), prepared.callback, prepared.src),
		started: now,
		cancel:  cancel,
	}

	if err := w.register(pc.call.callback, pc.call.id, func(payload goja.Value) {
		c.resolve(pc, payload)
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("register callback: %w", err)
	}

	if timeout > 0 {
		pc.timer = time.AfterFunc(timeout, func() {
			c.abort(pc, requestTimeout())
		})
	}
	pc.stopWatch = context.AfterFunc(ctx, func() {
		c.abort(pc, ctx.Err())
	})

	pc.script = w.appendScript(pc.call.id, pc.call.src)
	c.pending[pc.call.id] = pc

	c.logger.Debug("script injected",
		zap.String("id", pc.call.id),
		zap.String("callback", pc.call.callback),
		zap.String("src", pc.call.src),
		zap.Duration("timeout", timeout),
	)

	go c.load(loadCtx, pc)

	return pc.call, nil
}

// Pending returns a snapshot of the requests still in flight, oldest first
func (c *Client) Pending() []PendingRequest {
	c.window.mu.Lock()
	defer c.window.mu.Unlock()

	requests := make([]PendingRequest, 0, len(c.pending))
	for _, pc := range c.pending {
		requests = append(requests, PendingRequest{
			ID:        pc.call.id,
			Callback:  pc.call.callback,
			URL:       pc.call.src,
			Timestamp: pc.started,
		})
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].Timestamp.Before(requests[j].Timestamp)
	})
	return requests
}

// load fetches and runs the script. A script that runs without calling
// back leaves the request to its timer, as a browser would.
func (c *Client) load(ctx context.Context, pc *pendingCall) {
	body, loadErr := c.loader.Load(ctx, pc.call.src)

	w := c.window
	w.mu.Lock()
	defer w.mu.Unlock()

	if pc.settled {
		return
	}
	if reason := pc.abortReason(); reason != nil {
		c.reject(pc, reason)
		return
	}
	if loadErr != nil {
		c.reject(pc, badRequest(loadErr))
		return
	}

	if err := w.exec(pc.call.id, pc.call.src, string(body), pc.abortReason); err != nil {
		if pc.settled {
			// The script called back and then failed.
			return
		}
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if reason, ok := interrupted.Value().(error); ok {
				c.reject(pc, reason)
				return
			}
		}
		c.reject(pc, badRequest(err))
	}
}

// resolve runs inside the script, with the window mutex held.
func (c *Client) resolve(pc *pendingCall, payload goja.Value) {
	if !c.release(pc) {
		return
	}
	var value any
	if payload != nil {
		value = payload.Export()
	}
	pc.call.settle(value, nil)

	c.logger.Debug("request resolved",
		zap.String("id", pc.call.id),
		zap.Duration("elapsed", c.now().Sub(pc.started)),
	)
}

// abort settles pc from outside the event loop: timer or ctx.
func (c *Client) abort(pc *pendingCall, reason error) {
	pc.aborted.CompareAndSwap(nil, &reason)
	c.window.interrupt(pc.call.id, reason)

	c.window.mu.Lock()
	defer c.window.mu.Unlock()
	c.reject(pc, reason)
}

func (c *Client) reject(pc *pendingCall, reason error) {
	if !c.release(pc) {
		return
	}
	pc.call.settle(nil, reason)

	c.logger.Warn("request failed",
		zap.String("id", pc.call.id),
		zap.String("callback", pc.call.callback),
		zap.Error(reason),
	)
}

// release tears down everything pc owns. It reports false if pc was
// already released. Must be called with the window mutex held.
func (c *Client) release(pc *pendingCall) bool {
	if pc.settled {
		return false
	}
	pc.settled = true

	if pc.timer != nil {
		pc.timer.Stop()
	}
	if pc.stopWatch != nil {
		pc.stopWatch()
	}
	pc.cancel()
	c.window.removeScript(pc.script)
	c.window.unregister(pc.call.callback, pc.call.id)
	delete(c.pending, pc.call.id)
	return true
}
