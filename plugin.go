package jsonp

import (
	"context"
	"math"
	"sync"
	"time"
)

// Names under which Install exposes the request function.
const (
	StaticName = "jsonp"
	MethodName = "$jsonp"
)

// Host is the application framework a client installs into: a root object
// with static functions and a prototype shared by every component.
type Host interface {
	SetStatic(name string, fn RequestFunc)
	SetMethod(name string, fn RequestFunc)
}

// DefaultClient is the process-wide client used by the package functions.
var DefaultClient = NewClient()

// Install attaches c.Request to host under StaticName and MethodName. A
// numeric options value is the default timeout in milliseconds; a
// time.Duration is used as is. Any other options value is ignored.
func (c *Client) Install(host Host, options any) {
	host.SetStatic(StaticName, c.Request)
	host.SetMethod(MethodName, c.Request)

	if d, ok := timeoutOption(options); ok {
		c.SetTimeout(d)
	}
}

// Install installs DefaultClient into host.
func Install(host Host, options any) { DefaultClient.Install(host, options) }

// Request issues a request through DefaultClient.
func Request(ctx context.Context, rawURL string, params Params, timeout time.Duration) (*Call, error) {
	return DefaultClient.Request(ctx, rawURL, params, timeout)
}

// Get issues a request through DefaultClient and waits for it.
func Get(ctx context.Context, rawURL string, params Params, timeout time.Duration) (any, error) {
	return DefaultClient.Get(ctx, rawURL, params, timeout)
}

func timeoutOption(options any) (time.Duration, bool) {
	var ms float64
	switch v := options.(type) {
	case time.Duration:
		return v, true
	case int:
		ms = float64(v)
	case int8:
		ms = float64(v)
	case int16:
		ms = float64(v)
	case int32:
		ms = float64(v)
	case int64:
		ms = float64(v)
	case uint:
		ms = float64(v)
	case uint8:
		ms = float64(v)
	case uint16:
		ms = float64(v)
	case uint32:
		ms = float64(v)
	case uint64:
		ms = float64(v)
	case float32:
		ms = float64(v)
	case float64:
		ms = v
	default:
		return 0, false
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}

// AppHost is a minimal Host that keeps installed functions in maps.
type AppHost struct {
	mu      sync.RWMutex
	statics map[string]RequestFunc
	methods map[string]RequestFunc
}

func NewAppHost() *AppHost {
	return &AppHost{
		statics: make(map[string]RequestFunc),
		methods: make(map[string]RequestFunc),
	}
}

func (h *AppHost) SetStatic(name string, fn RequestFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statics[name] = fn
}

func (h *AppHost) SetMethod(name string, fn RequestFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.methods[name] = fn
}

// Static returns the function installed under name on the root object.
func (h *AppHost) Static(name string) (RequestFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.statics[name]
	return fn, ok
}

// Method returns the function every component instance sees under name.
func (h *AppHost) Method(name string) (RequestFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.methods[name]
	return fn, ok
}
