package jsonp

import (
	"context"
	"time"
)

// Params holds the query parameters of a request. Values may be strings,
// booleans, numbers, slices, map[string]any or Object. Other values are
// dropped during encoding.
type Params map[string]any

// Reserved parameter keys consumed before serialization.
const (
	ParamCallbackQuery = "callbackQuery"
	ParamCallbackName  = "callbackName"
	ParamSecret        = "secret"
)

// Field is a single entry of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is a nested mapping that keeps its insertion order when encoded.
// Plain map[string]any values are encoded in sorted key order.
type Object []Field

// PendingRequest describes a call that has not settled yet
// This is what Client.Pending returns
type PendingRequest struct {
	ID        string    `json:"id"`
	Callback  string    `json:"callback"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestFunc is the function shape attached to a Host by Install.
type RequestFunc func(ctx context.Context, rawURL string, params Params, timeout time.Duration) (*Call, error)
