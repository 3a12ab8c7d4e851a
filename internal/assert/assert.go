// Package assert implements the handful of assertion predicates require
// builds on. It exists because the teacher package it replaces,
// github.com/kjk/common/assert, lives outside this module.
package assert

import (
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

// TestingT is the subset of *testing.T the predicates need.
type TestingT interface {
	Errorf(format string, args ...interface{})
}

func messageFromMsgAndArgs(msgAndArgs ...interface{}) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%+v", msgAndArgs[0])
	}
	return fmt.Sprintf(msgAndArgs[0].(string), msgAndArgs[1:]...)
}

func fail(t TestingT, failureMsg string, msgAndArgs ...interface{}) bool {
	msg := messageFromMsgAndArgs(msgAndArgs...)
	if msg != "" {
		t.Errorf("%s\n%s", failureMsg, msg)
	} else {
		t.Errorf("%s", failureMsg)
	}
	return false
}

func isNil(object interface{}) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Nil asserts that object is nil.
func Nil(t TestingT, object interface{}, msgAndArgs ...interface{}) bool {
	if isNil(object) {
		return true
	}
	return fail(t, fmt.Sprintf("expected nil, got: %s", spew.Sdump(object)), msgAndArgs...)
}

// NotNil asserts that object is not nil.
func NotNil(t TestingT, object interface{}, msgAndArgs ...interface{}) bool {
	if !isNil(object) {
		return true
	}
	return fail(t, "expected value not to be nil", msgAndArgs...)
}

// NoError asserts that err is nil.
func NoError(t TestingT, err error, msgAndArgs ...interface{}) bool {
	if err == nil {
		return true
	}
	return fail(t, fmt.Sprintf("unexpected error: %s", err), msgAndArgs...)
}

// Error asserts that err is not nil.
func Error(t TestingT, err error, msgAndArgs ...interface{}) bool {
	if err != nil {
		return true
	}
	return fail(t, "expected an error, got nil", msgAndArgs...)
}

func objectsAreEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	exp, ok := expected.([]byte)
	if !ok {
		return reflect.DeepEqual(expected, actual)
	}
	act, ok := actual.([]byte)
	if !ok {
		return false
	}
	if exp == nil || act == nil {
		return exp == nil && act == nil
	}
	return string(exp) == string(act)
}

func diff(expected, actual interface{}) string {
	e := spew.Sdump(expected)
	a := spew.Sdump(actual)
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(e),
		B:        difflib.SplitLines(a),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return fmt.Sprintf("expected: %s\nactual  : %s", e, a)
	}
	return text
}

// Equal asserts that expected and actual are deeply equal.
func Equal(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) bool {
	if objectsAreEqual(expected, actual) {
		return true
	}
	return fail(t, fmt.Sprintf("not equal:\n%s", diff(expected, actual)), msgAndArgs...)
}

// NotEqual asserts that expected and actual are not deeply equal.
func NotEqual(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) bool {
	if !objectsAreEqual(expected, actual) {
		return true
	}
	return fail(t, fmt.Sprintf("expected values to differ, both are: %s", spew.Sdump(actual)), msgAndArgs...)
}

// True asserts that value is true.
func True(t TestingT, value bool, msgAndArgs ...interface{}) bool {
	if value {
		return true
	}
	return fail(t, "expected true, got false", msgAndArgs...)
}

// False asserts that value is false.
func False(t TestingT, value bool, msgAndArgs ...interface{}) bool {
	if !value {
		return true
	}
	return fail(t, "expected false, got true", msgAndArgs...)
}

func getLen(object interface{}) (int, bool) {
	v := reflect.ValueOf(object)
	defer func() { recover() }()
	return v.Len(), true
}

// Len asserts that object has the given length.
func Len(t TestingT, object interface{}, length int, msgAndArgs ...interface{}) bool {
	l, ok := getLen(object)
	if !ok {
		return fail(t, fmt.Sprintf("could not take len() of %s", spew.Sdump(object)), msgAndArgs...)
	}
	if l == length {
		return true
	}
	return fail(t, fmt.Sprintf("expected len %d, got %d", length, l), msgAndArgs...)
}

// NotEmpty asserts that object is not the zero value, nor an empty
// slice/map/chan/string.
func NotEmpty(t TestingT, object interface{}, msgAndArgs ...interface{}) bool {
	if object == nil {
		return fail(t, "expected non-empty value, got nil", msgAndArgs...)
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Chan, reflect.String, reflect.Array:
		if v.Len() == 0 {
			return fail(t, fmt.Sprintf("expected non-empty value, got %s", spew.Sdump(object)), msgAndArgs...)
		}
		return true
	}
	zero := reflect.Zero(v.Type()).Interface()
	if objectsAreEqual(zero, object) {
		return fail(t, fmt.Sprintf("expected non-empty value, got %s", spew.Sdump(object)), msgAndArgs...)
	}
	return true
}
