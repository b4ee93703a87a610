package expect

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/specvital/harness/pkg/mock"
)

// ToBe asserts identity equality: same type, same value, with composite
// values compared by reference.
func (x *Expectation) ToBe(expected any) {
	x.verify("ToBe", identical(x.received, expected), func() string {
		return fmt.Sprintf("expected %s to be %s", formatValue(x.received), formatValue(expected))
	})
}

// ToEqual asserts recursive structural equality. Asymmetric matchers inside
// expected are consulted in place of exact values.
func (x *Expectation) ToEqual(expected any) {
	x.verify("ToEqual", Equal(x.received, expected), func() string {
		return fmt.Sprintf("expected %s to equal %s", formatValue(x.received), formatValue(expected))
	})
}

// ToBeTruthy asserts the received value is truthy: not nil, false, zero, or
// an empty string.
func (x *Expectation) ToBeTruthy() {
	x.verify("ToBeTruthy", isTruthy(x.received), func() string {
		return fmt.Sprintf("expected %s to be truthy", formatValue(x.received))
	})
}

// ToBeFalsy asserts the received value is falsy.
func (x *Expectation) ToBeFalsy() {
	x.verify("ToBeFalsy", !isTruthy(x.received), func() string {
		return fmt.Sprintf("expected %s to be falsy", formatValue(x.received))
	})
}

// ToBeNil asserts the received value is nil. This covers both the null and
// undefined checks of the source semantics; Go has a single absent value.
func (x *Expectation) ToBeNil() {
	x.verify("ToBeNil", isNil(x.received), func() string {
		return fmt.Sprintf("expected %s to be nil", formatValue(x.received))
	})
}

// ToBeDefined asserts the received value is not nil.
func (x *Expectation) ToBeDefined() {
	x.verify("ToBeDefined", !isNil(x.received), func() string {
		return "expected value to be defined"
	})
}

// ToBeGreaterThan asserts received > expected numerically.
func (x *Expectation) ToBeGreaterThan(expected any) {
	x.compare("ToBeGreaterThan", ">", expected, func(a, b float64) bool { return a > b })
}

// ToBeGreaterThanOrEqual asserts received >= expected numerically.
func (x *Expectation) ToBeGreaterThanOrEqual(expected any) {
	x.compare("ToBeGreaterThanOrEqual", ">=", expected, func(a, b float64) bool { return a >= b })
}

// ToBeLessThan asserts received < expected numerically.
func (x *Expectation) ToBeLessThan(expected any) {
	x.compare("ToBeLessThan", "<", expected, func(a, b float64) bool { return a < b })
}

// ToBeLessThanOrEqual asserts received <= expected numerically.
func (x *Expectation) ToBeLessThanOrEqual(expected any) {
	x.compare("ToBeLessThanOrEqual", "<=", expected, func(a, b float64) bool { return a <= b })
}

// ToBeCloseTo asserts approximate numeric equality within a tolerance of
// 10^-precision / 2. Default precision is 2.
func (x *Expectation) ToBeCloseTo(expected float64, precision ...int) {
	p := 2
	if len(precision) > 0 {
		p = precision[0]
	}
	tolerance := math.Pow(10, float64(-p)) / 2

	received, ok := toFloat(reflect.ValueOf(x.received))
	pass := ok && math.Abs(received-expected) < tolerance
	x.verify("ToBeCloseTo", pass, func() string {
		return fmt.Sprintf("expected %s to be close to %v (precision %d)", formatValue(x.received), expected, p)
	})
}

// ToMatch asserts the received string contains the given substring or
// matches the given *regexp.Regexp. Errors are matched on their message.
func (x *Expectation) ToMatch(pattern any) {
	s, ok := asString(x.received)
	x.verify("ToMatch", ok && matchPattern(s, pattern), func() string {
		return fmt.Sprintf("expected %s to match %v", formatValue(x.received), pattern)
	})
}

// ToContain asserts substring presence for strings and element membership
// (by identity/value equality) for arrays.
func (x *Expectation) ToContain(item any) {
	x.verify("ToContain", contains(x.received, item, identical), func() string {
		return fmt.Sprintf("expected %s to contain %s", formatValue(x.received), formatValue(item))
	})
}

// ToContainEqual asserts the received array has at least one element
// structurally equal to item.
func (x *Expectation) ToContainEqual(item any) {
	x.verify("ToContainEqual", contains(x.received, item, Equal), func() string {
		return fmt.Sprintf("expected %s to contain an element equal to %s", formatValue(x.received), formatValue(item))
	})
}

// ToHaveLength asserts the length of a string, slice, array, or map.
func (x *Expectation) ToHaveLength(expected int) {
	length, ok := lengthOf(x.received)
	x.verify("ToHaveLength", ok && length == expected, func() string {
		if !ok {
			return fmt.Sprintf("expected %s to have a length", formatValue(x.received))
		}
		return fmt.Sprintf("expected %s to have length %d, got %d", formatValue(x.received), expected, length)
	})
}

// ToHaveProperty asserts a dotted-path property exists and, when a value is
// supplied, structurally equals it.
func (x *Expectation) ToHaveProperty(path string, value ...any) {
	got, present := propertyAt(x.received, path)
	pass := present
	if pass && len(value) > 0 {
		pass = Equal(got, value[0])
	}
	x.verify("ToHaveProperty", pass, func() string {
		if !present || len(value) == 0 {
			return fmt.Sprintf("expected %s to have property %q", formatValue(x.received), path)
		}
		return fmt.Sprintf("expected property %q to equal %s, got %s", path, formatValue(value[0]), formatValue(got))
	})
}

// ToMatchObject asserts the received object recursively contains every
// property of subset.
func (x *Expectation) ToMatchObject(subset map[string]any) {
	x.verify("ToMatchObject", matchObject(x.received, subset), func() string {
		return fmt.Sprintf("expected %s to match object %s", formatValue(x.received), formatValue(subset))
	})
}

// ToThrow invokes the received zero-argument callable and asserts it
// panics. An optional pattern constrains the thrown message: a string is a
// substring test, a *regexp.Regexp a pattern test.
func (x *Expectation) ToThrow(pattern ...any) {
	fn, ok := asCallable(x.received)
	if !ok {
		// Not a matcher mismatch: the assertion is unusable, so negation
		// does not rescue it.
		x.expecter.countHook()
		x.fail("ToThrow", fmt.Sprintf("expected a callable, got %s", formatValue(x.received)))
	}

	thrown, value := capturePanic(fn)
	pass := thrown
	if pass && len(pattern) > 0 {
		pass = matchPattern(panicMessage(value), pattern[0])
	}
	x.verify("ToThrow", pass, func() string {
		if !thrown {
			return "expected function to throw, but it returned"
		}
		if len(pattern) == 0 {
			return fmt.Sprintf("function threw: %s", panicMessage(value))
		}
		return fmt.Sprintf("expected thrown message %q to match %v", panicMessage(value), pattern[0])
	})
}

// ToBeInstanceOf asserts the received value's dynamic type is (or
// implements, for interface types) the expected type.
func (x *Expectation) ToBeInstanceOf(expected reflect.Type) {
	pass := false
	if x.received != nil && expected != nil {
		at := reflect.TypeOf(x.received)
		if expected.Kind() == reflect.Interface {
			pass = at.Implements(expected)
		} else {
			pass = at == expected
		}
	}
	x.verify("ToBeInstanceOf", pass, func() string {
		return fmt.Sprintf("expected %s to be an instance of %s", formatValue(x.received), expected)
	})
}

// ToMatchSnapshot always passes. There is no snapshot persistence backend;
// this is a documented limitation, kept so snippets using snapshots still
// run. The call counts as an assertion like any other matcher.
func (x *Expectation) ToMatchSnapshot() {
	x.verify("ToMatchSnapshot", !x.negated, func() string {
		return "snapshot matching is not supported"
	})
}

// ToHaveBeenCalled asserts the received mock was invoked at least once.
func (x *Expectation) ToHaveBeenCalled() {
	fn := x.mustMock("ToHaveBeenCalled")
	x.verify("ToHaveBeenCalled", fn.CallCount() > 0, func() string {
		return "expected mock to have been called"
	})
}

// ToHaveBeenCalledTimes asserts the exact invocation count.
func (x *Expectation) ToHaveBeenCalledTimes(n int) {
	fn := x.mustMock("ToHaveBeenCalledTimes")
	x.verify("ToHaveBeenCalledTimes", fn.CallCount() == n, func() string {
		return fmt.Sprintf("expected mock to have been called %d times, got %d", n, fn.CallCount())
	})
}

// ToHaveBeenCalledWith asserts some invocation received these arguments,
// compared structurally with asymmetric matcher support.
func (x *Expectation) ToHaveBeenCalledWith(args ...any) {
	fn := x.mustMock("ToHaveBeenCalledWith")
	pass := false
	for _, call := range fn.Calls() {
		if argsEqual(call, args) {
			pass = true
			break
		}
	}
	x.verify("ToHaveBeenCalledWith", pass, func() string {
		return fmt.Sprintf("expected mock to have been called with %s", formatArgs(args))
	})
}

// ToHaveBeenLastCalledWith asserts the most recent invocation's arguments.
func (x *Expectation) ToHaveBeenLastCalledWith(args ...any) {
	fn := x.mustMock("ToHaveBeenLastCalledWith")
	last, ok := fn.LastCall()
	x.verify("ToHaveBeenLastCalledWith", ok && argsEqual(last, args), func() string {
		return fmt.Sprintf("expected last call to be %s", formatArgs(args))
	})
}

// ToHaveBeenNthCalledWith asserts the 1-based nth invocation's arguments.
func (x *Expectation) ToHaveBeenNthCalledWith(n int, args ...any) {
	fn := x.mustMock("ToHaveBeenNthCalledWith")
	nth, ok := fn.NthCall(n)
	x.verify("ToHaveBeenNthCalledWith", ok && argsEqual(nth, args), func() string {
		return fmt.Sprintf("expected call %d to be %s", n, formatArgs(args))
	})
}

// compare implements the numeric comparison matchers.
func (x *Expectation) compare(name, op string, expected any, cmp func(a, b float64) bool) {
	a, aok := toFloat(reflect.ValueOf(x.received))
	b, bok := toFloat(reflect.ValueOf(expected))
	x.verify(name, aok && bok && cmp(a, b), func() string {
		return fmt.Sprintf("expected %s %s %s", formatValue(x.received), op, formatValue(expected))
	})
}

// mustMock narrows the received value to a mock function, failing the
// assertion (after counting it) otherwise.
func (x *Expectation) mustMock(matcher string) *mock.Fn {
	if fn, ok := x.received.(*mock.Fn); ok {
		return fn
	}
	x.expecter.countHook()
	x.fail(matcher, fmt.Sprintf("received value %s is not a mock function", formatValue(x.received)))
	return nil
}

func argsEqual(actual, expected []any) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range actual {
		if !Equal(actual[i], expected[i]) {
			return false
		}
	}
	return true
}

// identical implements identity equality: comparable values by ==,
// composite values by reference.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}
	switch av.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		if av.IsNil() || bv.IsNil() {
			return av.IsNil() && bv.IsNil()
		}
		return av.Pointer() == bv.Pointer()
	default:
		if !av.Comparable() {
			return false
		}
		return a == b
	}
}

func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return !rv.IsNil()
	default:
		if f, ok := toFloat(rv); ok {
			return f != 0 && !math.IsNaN(f)
		}
		return true
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case error:
		return s.Error(), true
	case fmt.Stringer:
		return s.String(), true
	default:
		return "", false
	}
}

func contains(collection, item any, eq func(a, b any) bool) bool {
	if s, ok := collection.(string); ok {
		sub, ok := item.(string)
		return ok && strings.Contains(s, sub)
	}
	rv := reflect.ValueOf(collection)
	if collection == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if eq(rv.Index(i).Interface(), item) {
			return true
		}
	}
	return false
}

func lengthOf(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	default:
		return 0, false
	}
}

// asCallable adapts the zero-argument callable shapes ToThrow accepts.
func asCallable(v any) (func(), bool) {
	switch fn := v.(type) {
	case func():
		return fn, true
	case func() any:
		return func() { fn() }, true
	case *mock.Fn:
		return func() { fn.Call() }, true
	default:
		return nil, false
	}
}

func capturePanic(fn func()) (thrown bool, value any) {
	defer func() {
		if r := recover(); r != nil {
			thrown = true
			value = r
		}
	}()
	fn()
	return false, nil
}

// panicMessage renders a panic value the way the runner renders test
// failures: error messages verbatim, everything else via %v.
func panicMessage(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", v)
}
