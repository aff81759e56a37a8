package require

import (
	"errors"
	"strings"

	"github.com/alecthomas/assert"
	"github.com/pmezard/go-difflib/difflib"
)

// this is a subset of github.com/stretchr/testify/require
// on top of github.com/alecthomas/assert, only the functions I use.
// assert already calls t.FailNow() on failure, so do the helpers below

// TestingT is an interface wrapper around *testing.T
type TestingT = assert.TestingT

// Len asserts that the specified object has specific length.
//
//	require.Len(t, mySlice, 3)
func Len(t TestingT, object interface{}, length int, msgAndArgs ...interface{}) {
	assert.Len(t, object, length, msgAndArgs...)
}

// Nil asserts that the specified object is nil.
func Nil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	assert.Nil(t, object, msgAndArgs...)
}

// NotNil asserts that the specified object is not nil.
func NotNil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	assert.NotNil(t, object, msgAndArgs...)
}

// NoError asserts that a function returned no error (i.e. `nil`).
func NoError(t TestingT, err error, msgAndArgs ...interface{}) {
	assert.NoError(t, err, msgAndArgs...)
}

// Error asserts that a function returned an error
func Error(t TestingT, err error, msgAndArgs ...interface{}) {
	assert.Error(t, err, msgAndArgs...)
}

// ErrorIs asserts that errors.Is(err, target) is true
//
//	require.ErrorIs(t, err, os.ErrNotExist)
func ErrorIs(t TestingT, err error, target error) {
	if errors.Is(err, target) {
		return
	}
	t.Errorf("expected error '%v', got '%v'", target, err)
	t.FailNow()
}

// Equal asserts that two objects are equal.
//
//	require.Equal(t, 123, 123)
func Equal(t TestingT, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	assert.Equal(t, expected, actual, msgAndArgs...)
}

// NotEqual asserts that the specified values are NOT equal.
func NotEqual(t TestingT, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	assert.NotEqual(t, expected, actual, msgAndArgs...)
}

// True asserts that the specified value is true.
func True(t TestingT, value bool, msgAndArgs ...interface{}) {
	assert.True(t, value, msgAndArgs...)
}

// False asserts that the specified value is false.
func False(t TestingT, value bool, msgAndArgs ...interface{}) {
	assert.False(t, value, msgAndArgs...)
}

// Contains asserts that s contains substr
func Contains(t TestingT, s string, substr string) {
	if strings.Contains(s, substr) {
		return
	}
	t.Errorf("'%s' does not contain '%s'", s, substr)
	t.FailNow()
}

// EqualText asserts that two multi-line texts are equal and shows
// a unified diff if they are not
func EqualText(t TestingT, expected string, actual string) {
	if expected == actual {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		s = err.Error()
	}
	t.Errorf("texts are different:\n%s", s)
	t.FailNow()
}
