package runtime

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/deicod/godtl/formats"
)

// Stringify converts a resolved value to its plain display string,
// without localization or escaping. Python-style spellings are kept for
// booleans and nil so conditions and output read the same across ports.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case SafeString:
		return string(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}

// RenderValue converts a resolved value into final output text for the
// current render: timezone conversion, localization when enabled, then
// at most one escaping pass. SafeString values are emitted verbatim.
func RenderValue(value interface{}, ctx *Context) string {
	value = formats.TemplateLocaltime(value, ctx.UseTZ)

	if safe, ok := value.(Safe); ok {
		return safe.SafeHTML()
	}

	var s string
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		s = formats.Localize(value, ctx.UseL10N)
	case time.Time:
		if ctx.UseL10N {
			s = formats.Localize(value, true)
		} else {
			s = Stringify(value)
		}
	default:
		s = Stringify(value)
	}

	if ctx.Autoescape {
		return EscapeString(s)
	}
	return s
}

// IsTrue applies template truthiness: nil, false, numeric zero, empty
// strings and containers, and the zero time are falsy.
func IsTrue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return len(v) > 0
	case SafeString:
		return len(v) > 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case time.Time:
		return !v.IsZero()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array, reflect.Chan, reflect.String:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// ToSlice materializes an iterable value for the iteration construct.
// Maps iterate their keys in sorted order so renders stay deterministic;
// strings iterate runes.
func ToSlice(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []interface{}:
		return v, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]interface{}, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case string:
		runes := []rune(v)
		out := make([]interface{}, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out, true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	case reflect.Map:
		keys := rv.MapKeys()
		strKeys := make([]string, len(keys))
		byStr := make(map[string]reflect.Value, len(keys))
		for i, k := range keys {
			s := Stringify(k.Interface())
			strKeys[i] = s
			byStr[s] = k
		}
		sort.Strings(strKeys)
		out := make([]interface{}, len(strKeys))
		for i, s := range strKeys {
			out[i] = byStr[s].Interface()
		}
		return out, true
	}
	return nil, false
}

// Equal compares two template values, unifying numeric types first
func Equal(a, b interface{}) bool {
	if af, aok := ToFloat(a); aok {
		if bf, bok := ToFloat(b); bok {
			return af == bf
		}
	}
	if as, aok := stringValue(a); aok {
		if bs, bok := stringValue(b); bok {
			return as == bs
		}
	}
	return reflect.DeepEqual(a, b)
}

// Less orders two template values. The second result is false when the
// operands are not comparable; the conditional construct treats such
// comparisons as false rather than failing the render.
func Less(a, b interface{}) (bool, bool) {
	if af, aok := ToFloat(a); aok {
		if bf, bok := ToFloat(b); bok {
			return af < bf, true
		}
	}
	if as, aok := stringValue(a); aok {
		if bs, bok := stringValue(b); bok {
			return as < bs, true
		}
	}
	return false, false
}

// Contains implements the membership test over strings, slices and maps
func Contains(container, item interface{}) (bool, bool) {
	if cs, ok := stringValue(container); ok {
		is, iok := stringValue(item)
		if !iok {
			is = Stringify(item)
		}
		return strings.Contains(cs, is), true
	}

	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if Equal(rv.Index(i).Interface(), item) {
				return true, true
			}
		}
		return false, true
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			if Equal(k.Interface(), item) {
				return true, true
			}
		}
		return false, true
	}
	return false, false
}

// ToFloat widens any numeric value to float64
func ToFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// ToInt narrows a template value to int
func ToInt(value interface{}) (int, bool) {
	if s, ok := stringValue(value); ok {
		n, err := strconv.Atoi(s)
		return n, err == nil
	}
	f, ok := ToFloat(value)
	return int(f), ok
}

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case SafeString:
		return string(v), true
	}
	return "", false
}

// Length returns the template length of a value (runes for strings)
func Length(value interface{}) (int, bool) {
	if s, ok := stringValue(value); ok {
		return len([]rune(s)), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}
