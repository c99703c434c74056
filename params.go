package jsonp

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

type valueKind int

const (
	kindIgnore valueKind = iota
	kindScalar
	kindSequence
	kindMapping
)

// Encode serializes params into a query string: keys sorted, each value
// flattened into percent-encoded key=value fragments joined with "&".
// Reserved keys are not treated specially here.
func Encode(params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fragments []string
	for _, k := range keys {
		fragments = append(fragments, formatParam(k, params[k])...)
	}
	return strings.Join(fragments, "&")
}

// formatParam flattens one value into ordered key=value fragments.
func formatParam(key string, value any) []string {
	key = strings.ReplaceAll(key, "=", "")

	switch kindOf(value) {
	case kindScalar:
		s, _ := scalarString(value)
		return []string{percentEncode(key) + "=" + percentEncode(s)}

	case kindSequence:
		var out []string
		for _, item := range sequenceItems(value) {
			out = append(out, formatParam(key+"[]=", item)...)
		}
		return out

	case kindMapping:
		var out []string
		for _, f := range mappingFields(value) {
			out = append(out, formatParam(key+"["+f.Key+"]", f.Value)...)
		}
		return out
	}
	return nil
}

func kindOf(value any) valueKind {
	switch value.(type) {
	case nil:
		return kindIgnore
	case Object:
		return kindMapping
	case json.Number:
		return kindScalar
	}
	if _, ok := scalarString(value); ok {
		return kindScalar
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return kindIgnore
		}
		return kindSequence
	case reflect.Array:
		return kindSequence
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return kindIgnore
		}
		return kindMapping
	}
	return kindIgnore
}

// scalarString renders strings, booleans and numbers the way JavaScript's
// String() would.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return formatNumber(float64(float32(rv.Float()))), true
	case reflect.Float64:
		return formatNumber(rv.Float()), true
	}
	return "", false
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		exp = strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func sequenceItems(value any) []any {
	if items, ok := value.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(value)
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

func mappingFields(value any) []Field {
	if obj, ok := value.(Object); ok {
		return obj
	}

	rv := reflect.ValueOf(value)
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	fields := make([]Field, len(keys))
	for i, k := range keys {
		fields[i] = Field{Key: k.String(), Value: rv.MapIndex(k).Interface()}
	}
	return fields
}
