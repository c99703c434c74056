package jsonp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultCallbackQuery = "callback"

// preparedRequest is the outcome of steps that need no I/O: reserved
// params consumed, query serialized, signature applied.
type preparedRequest struct {
	base      string
	query     string
	src       string
	callback  string
	generated bool
}

// BuildURL composes the script URL for rawURL and params without issuing
// anything. With an explicit callbackName and no secret the result is
// deterministic.
func BuildURL(rawURL string, params Params) (string, error) {
	p, err := prepare(rawURL, params, time.Now())
	if err != nil {
		return "", err
	}
	return p.src, nil
}

func prepare(rawURL string, params Params, now time.Time) (*preparedRequest, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	// Work on a copy; the caller's map is left untouched.
	values := make(Params, len(params)+3)
	for k, v := range params {
		values[k] = v
	}

	callbackQuery := stringParam(values, ParamCallbackQuery)
	if callbackQuery == "" {
		callbackQuery = defaultCallbackQuery
	}
	callbackName := stringParam(values, ParamCallbackName)
	generated := callbackName == ""
	if generated {
		callbackName = randomCallbackName(now)
	}
	delete(values, ParamCallbackQuery)
	delete(values, ParamCallbackName)
	values[callbackQuery] = callbackName

	secret := stringParam(values, ParamSecret)
	delete(values, ParamSecret)
	var key []byte
	if secret != "" {
		var err error
		if key, err = decodeSecret(secret); err != nil {
			return nil, err
		}
		values["nonce"] = randomNonce()
		values["timestamp"] = now.Unix()
	}

	query := Encode(values)
	if key != nil {
		query += "&signature=" + strictEncode(sign(key, SignInput(rawURL, query)))
	}

	return &preparedRequest{
		base:      rawURL,
		query:     query,
		src:       joinQuery(rawURL, query),
		callback:  callbackName,
		generated: generated,
	}, nil
}

// regenerate draws a new callback name for a generated request and
// rebuilds the query. Only valid when the name was not caller supplied.
// The attempt suffix keeps names distinct when the random token repeats.
func (p *preparedRequest) regenerate(params Params, now time.Time, attempt int) (*preparedRequest, error) {
	values := make(Params, len(params)+1)
	for k, v := range params {
		values[k] = v
	}
	values[ParamCallbackName] = randomCallbackName(now) + "_" + strconv.Itoa(attempt)
	next, err := prepare(p.base, values, now)
	if err != nil {
		return nil, err
	}
	next.generated = true
	return next, nil
}

func validateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: url is empty", ErrInvalidArgument)
	}
	if _, err := url.Parse(rawURL); err != nil {
		return fmt.Errorf("%w: url: %v", ErrInvalidArgument, err)
	}
	return nil
}

func stringParam(values Params, key string) string {
	s, _ := values[key].(string)
	return s
}

func joinQuery(rawURL, query string) string {
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + query
	}
	return rawURL + "?" + query
}
