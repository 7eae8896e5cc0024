package timetable

import "fmt"

// Code names the three error classes a TimeTable operation can fail with.
type Code string

const (
	CodeInvalidSyntax  Code = "invalid_syntax"
	CodeInvalidContent Code = "invalid_content"
	CodeIOError        Code = "io_error"
)

// Error is returned by every TimeTable operation that can fail; callers
// classify it with Code() rather than errors.As against a concrete type.
type Error struct {
	code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Code reports which of the InvalidSyntax/InvalidContent/IOError classes
// this error belongs to.
func (e *Error) Code() string { return string(e.code) }

func (e *Error) Unwrap() error { return e.err }

func newSyntaxError(err error) *Error {
	return &Error{code: CodeInvalidSyntax, msg: "timetable document is not valid JSON", err: err}
}

func newContentError(msg string) *Error {
	return &Error{code: CodeInvalidContent, msg: msg}
}

func newIOError(err error) *Error {
	return &Error{code: CodeIOError, msg: "timetable persistence failed", err: err}
}
