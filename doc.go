// Package jsonp issues cross-origin GET requests the JSONP way: the
// request parameters are encoded into the src of a script element, and the
// request resolves when the loaded script calls a global callback with its
// payload.
//
// A Client owns a Window, a JavaScript runtime whose global object serves
// as the callback registry, plus a document whose head receives the script
// elements. Every request registers a one-shot callback, injects a script,
// and races the callback against a load error, an optional timeout and its
// context. Whichever comes first settles the Call and releases the script
// and the callback.
//
// Basic usage:
//
//	client := jsonp.NewClient(jsonp.WithTimeout(2 * time.Second))
//	payload, err := client.Get(ctx, "https://api.example.com/data", jsonp.Params{
//	    "name": "A",
//	    "age":  1,
//	}, 0)
//
// Passing a "secret" parameter (base64) signs the request with HMAC-SHA1
// and adds nonce, timestamp and signature parameters.
package jsonp
