package jsonp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"
)

// SignInput returns the base string covered by the request signature.
func SignInput(rawURL, query string) string {
	return "GET&" + strictEncode(rawURL) + "&" + strictEncode(query)
}

// Sign computes the base64 HMAC-SHA1 digest of SignInput keyed by the
// base64-decoded secret. The digest is returned unencoded; callers put it
// on the wire through strictEncode.
func Sign(rawURL, query, secret string) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return sign(key, SignInput(rawURL, query)), nil
}

// Verify checks signature against the digest of rawURL and query.
func Verify(rawURL, query, secret, signature string) bool {
	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write([]byte(SignInput(rawURL, query)))
	return hmac.Equal(decoded, mac.Sum(nil))
}

func sign(key []byte, input string) string {
	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write([]byte(input))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if key, err := base64.StdEncoding.DecodeString(secret); err == nil {
		return key, nil
	}
	key, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, ErrInvalidSecret
	}
	return key, nil
}
