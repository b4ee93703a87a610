package expect

import (
	"reflect"
	"strconv"
	"strings"
)

// Equal reports deep structural equality between actual and expected.
//
// Rules, checked in order:
//   - an AsymmetricMatcher on the expected side is consulted in place of
//     recursion;
//   - numeric values compare by value across widths (int 1 equals float64 1);
//   - errors compare by message;
//   - slices and arrays compare as ordered sequences;
//   - string-keyed maps compare by identical key sets with pairwise-equal
//     values; structs compare by exported fields;
//   - everything else falls through to reflect.DeepEqual.
func Equal(actual, expected any) bool {
	if m, ok := expected.(AsymmetricMatcher); ok {
		return m.Match(actual)
	}
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	av, ev := reflect.ValueOf(actual), reflect.ValueOf(expected)

	if af, aok := toFloat(av); aok {
		ef, eok := toFloat(ev)
		return eok && af == ef
	}

	if ae, ok := actual.(error); ok {
		if ee, ok := expected.(error); ok {
			return ae.Error() == ee.Error()
		}
		return false
	}

	for av.Kind() == reflect.Pointer || av.Kind() == reflect.Interface {
		if av.IsNil() {
			return ev.Kind() == reflect.Pointer && ev.IsNil()
		}
		av = av.Elem()
	}
	for ev.Kind() == reflect.Pointer || ev.Kind() == reflect.Interface {
		if ev.IsNil() {
			return false
		}
		ev = ev.Elem()
	}

	switch av.Kind() {
	case reflect.Slice, reflect.Array:
		if ev.Kind() != reflect.Slice && ev.Kind() != reflect.Array {
			return false
		}
		if av.Len() != ev.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !Equal(av.Index(i).Interface(), ev.Index(i).Interface()) {
				return false
			}
		}
		return true

	case reflect.Map:
		if ev.Kind() != reflect.Map || av.Len() != ev.Len() {
			return false
		}
		if !av.Type().Key().AssignableTo(ev.Type().Key()) {
			return false
		}
		for _, key := range av.MapKeys() {
			evValue := ev.MapIndex(key)
			if !evValue.IsValid() {
				return false
			}
			if !Equal(av.MapIndex(key).Interface(), evValue.Interface()) {
				return false
			}
		}
		return true

	case reflect.Struct:
		if ev.Kind() != reflect.Struct || av.Type() != ev.Type() {
			return false
		}
		for i := 0; i < av.NumField(); i++ {
			if !av.Type().Field(i).IsExported() {
				continue
			}
			if !Equal(av.Field(i).Interface(), ev.Field(i).Interface()) {
				return false
			}
		}
		return true

	default:
		return reflect.DeepEqual(av.Interface(), ev.Interface())
	}
}

// matchObject reports whether actual recursively contains every property of
// subset. Nested objects on both sides match partially; any other values
// must be structurally equal.
func matchObject(actual any, subset map[string]any) bool {
	obj, ok := asObject(actual)
	if !ok {
		return false
	}
	for key, want := range subset {
		got, present := obj[key]
		if !present {
			return false
		}
		if nested, ok := want.(map[string]any); ok {
			if !matchObject(got, nested) {
				return false
			}
			continue
		}
		if !Equal(got, want) {
			return false
		}
	}
	return true
}

// asObject views string-keyed maps and structs as property maps.
func asObject(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			out[key.String()] = rv.MapIndex(key).Interface()
		}
		return out, true
	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			field := rv.Type().Field(i)
			if field.IsExported() {
				out[field.Name] = rv.Field(i).Interface()
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// propertyAt resolves a dotted path ("user.roles.0") against nested objects
// and sequences.
func propertyAt(v any, path string) (any, bool) {
	current := v
	for _, segment := range strings.Split(path, ".") {
		if idx, err := strconv.Atoi(segment); err == nil {
			rv := reflect.ValueOf(current)
			if current != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
				if idx < 0 || idx >= rv.Len() {
					return nil, false
				}
				current = rv.Index(idx).Interface()
				continue
			}
		}
		obj, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func toFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}
