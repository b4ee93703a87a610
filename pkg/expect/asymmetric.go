package expect

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// AsymmetricMatcher is a predicate-carrying placeholder. Structural equality
// consults the predicate in place of recursing into the value, so an
// asymmetric matcher can stand in for any expected value, at any depth.
type AsymmetricMatcher interface {
	// Match reports whether the actual value satisfies the predicate.
	Match(actual any) bool
	// String describes the predicate for failure messages.
	String() string
}

type predicateMatcher struct {
	desc string
	fn   func(actual any) bool
}

func (m *predicateMatcher) Match(actual any) bool { return m.fn(actual) }
func (m *predicateMatcher) String() string        { return m.desc }

// Any matches any value whose type belongs to the same family as sample's
// type: all numeric kinds group together, as do strings, bools, and funcs.
// Other types match by assignability.
func Any(sample reflect.Type) AsymmetricMatcher {
	return &predicateMatcher{
		desc: fmt.Sprintf("Any(%s)", sample),
		fn: func(actual any) bool {
			if actual == nil {
				return false
			}
			at := reflect.TypeOf(actual)
			if sameKindFamily(sample.Kind(), at.Kind()) {
				return true
			}
			return at.AssignableTo(sample)
		},
	}
}

// Anything matches any non-nil value.
func Anything() AsymmetricMatcher {
	return &predicateMatcher{
		desc: "Anything()",
		fn:   func(actual any) bool { return actual != nil },
	}
}

// ObjectContaining matches any object whose properties include every entry
// of subset, compared by structural equality (nested asymmetric matchers
// included).
func ObjectContaining(subset map[string]any) AsymmetricMatcher {
	return &predicateMatcher{
		desc: fmt.Sprintf("ObjectContaining(%s)", formatValue(subset)),
		fn:   func(actual any) bool { return matchObject(actual, subset) },
	}
}

// StringMatching matches strings against a substring or a compiled regular
// expression. Non-string actuals never match.
func StringMatching(pattern any) AsymmetricMatcher {
	return &predicateMatcher{
		desc: fmt.Sprintf("StringMatching(%v)", pattern),
		fn: func(actual any) bool {
			s, ok := actual.(string)
			if !ok {
				return false
			}
			return matchPattern(s, pattern)
		},
	}
}

// ArrayContaining matches any array that contains every listed item,
// compared by structural equality, in any order.
func ArrayContaining(items []any) AsymmetricMatcher {
	return &predicateMatcher{
		desc: fmt.Sprintf("ArrayContaining(%s)", formatValue(items)),
		fn: func(actual any) bool {
			rv := reflect.ValueOf(actual)
			if actual == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
				return false
			}
			for _, item := range items {
				found := false
				for i := 0; i < rv.Len(); i++ {
					if Equal(rv.Index(i).Interface(), item) {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			}
			return true
		},
	}
}

// matchPattern applies Jest-style pattern semantics: a string is a substring
// test, a *regexp.Regexp is a regular-expression test.
func matchPattern(s string, pattern any) bool {
	switch p := pattern.(type) {
	case string:
		return strings.Contains(s, p)
	case *regexp.Regexp:
		return p.MatchString(s)
	default:
		return false
	}
}

func sameKindFamily(a, b reflect.Kind) bool {
	return kindFamily(a) != familyOther && kindFamily(a) == kindFamily(b)
}

type family int

const (
	familyOther family = iota
	familyNumber
	familyString
	familyBool
	familyFunc
)

func kindFamily(k reflect.Kind) family {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return familyNumber
	case reflect.String:
		return familyString
	case reflect.Bool:
		return familyBool
	case reflect.Func:
		return familyFunc
	default:
		return familyOther
	}
}
