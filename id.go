package jsonp

import (
	"math/rand/v2"
	"strconv"
	"time"
)

const callbackPrefix = "jsonp_"

// randomToken renders floor(rand*100000) * epochMillis in base 16.
// It is only a fallback callback name and is not meant to be unguessable.
func randomToken(now time.Time) string {
	n := rand.Int64N(100000) * now.UnixMilli()
	return strconv.FormatInt(n, 16)
}

func randomCallbackName(now time.Time) string {
	return callbackPrefix + randomToken(now)
}

// randomNonce returns a value in [1, 999999999].
func randomNonce() int64 {
	return rand.Int64N(999999999) + 1
}
