package runtime

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
)

// Lookuper lets a value control how template attribute access resolves
// against it, bypassing reflection. Loop state and the block reference
// use this to compute attributes on demand.
type Lookuper interface {
	TemplateLookup(key string) (interface{}, bool)
}

// DoNotCall marks a callable that must be left uninvoked during
// resolution; the callable itself becomes the resolved value.
type DoNotCall interface {
	DoNotCallInTemplates() bool
}

// AltersData marks a callable whose invocation has side effects. The
// resolver never calls it; the lookup fails softly instead.
type AltersData interface {
	AltersData() bool
}

// errNoAccess signals that a single segment access found nothing; the
// variable layer wraps it with path information.
var errNoAccess = errors.New("no such key, attribute or index")

// ErrAltersData signals resolution reached a side-effecting callable
var ErrAltersData = errors.New("callable alters data and was not invoked")

// Access resolves one path segment against a base value. Strategies are
// tried in order: mapping key, attribute (field or method), then
// sequence index when the segment parses as a non-negative integer. The
// first hit wins; errNoAccess is returned when all three fail.
func Access(value interface{}, bit string) (interface{}, error) {
	if value == nil {
		return nil, errNoAccess
	}

	if lookuper, ok := value.(Lookuper); ok {
		if v, ok := lookuper.TemplateLookup(bit); ok {
			return v, nil
		}
		return nil, errNoAccess
	}

	if m, ok := value.(map[string]interface{}); ok {
		if v, ok := m[bit]; ok {
			return v, nil
		}
	} else if v, ok := reflectMapIndex(value, bit); ok {
		return v, nil
	}

	if v, ok := attrAccess(value, bit); ok {
		return v, nil
	}

	if idx, err := strconv.Atoi(bit); err == nil && idx >= 0 {
		if v, ok := indexAccess(value, idx); ok {
			return v, nil
		}
	}

	return nil, errNoAccess
}

func reflectMapIndex(value interface{}, bit string) (interface{}, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	key := reflect.ValueOf(bit)
	if !key.Type().ConvertibleTo(rv.Type().Key()) {
		return nil, false
	}
	item := rv.MapIndex(key.Convert(rv.Type().Key()))
	if !item.IsValid() {
		return nil, false
	}
	return item.Interface(), true
}

// attrAccess finds a struct field or method named after the segment.
// Template paths are conventionally lowercase, so the capitalized
// (exported) spelling is tried as well.
func attrAccess(value interface{}, bit string) (interface{}, bool) {
	rv := reflect.ValueOf(value)

	for _, name := range []string{bit, exportedName(bit)} {
		if m := rv.MethodByName(name); m.IsValid() {
			return m.Interface(), true
		}
	}

	elem := rv
	if elem.Kind() == reflect.Ptr {
		if elem.IsNil() {
			return nil, false
		}
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, false
	}

	for _, name := range []string{bit, exportedName(bit)} {
		if f := elem.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), true
		}
		if m := elem.MethodByName(name); m.IsValid() {
			return m.Interface(), true
		}
	}
	return nil, false
}

func exportedName(bit string) string {
	if bit == "" {
		return bit
	}
	return strings.ToUpper(bit[:1]) + bit[1:]
}

func indexAccess(value interface{}, idx int) (interface{}, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if idx < rv.Len() {
			return rv.Index(idx).Interface(), true
		}
	case reflect.String:
		runes := []rune(rv.String())
		if idx < len(runes) {
			return string(runes[idx]), true
		}
	}
	return nil, false
}

// MaybeCall invokes a resolved value when it is a no-argument callable,
// honoring the DoNotCall and AltersData markers. Non-callables pass
// through unchanged.
func MaybeCall(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if marker, ok := value.(DoNotCall); ok && marker.DoNotCallInTemplates() {
		return value, nil
	}
	if marker, ok := value.(AltersData); ok && marker.AltersData() {
		return nil, ErrAltersData
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Func {
		return value, nil
	}
	t := rv.Type()
	if t.NumIn() != 0 || t.NumOut() == 0 || t.NumOut() > 2 {
		return value, nil
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		return value, nil
	}

	results := rv.Call(nil)
	if len(results) == 2 && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// IsCallable reports whether a value would be invoked by MaybeCall
func IsCallable(value interface{}) bool {
	if value == nil {
		return false
	}
	return reflect.ValueOf(value).Kind() == reflect.Func
}

// ErrNoAccess reports whether err is a plain segment-access miss
func ErrNoAccess(err error) bool {
	return errors.Is(err, errNoAccess)
}
