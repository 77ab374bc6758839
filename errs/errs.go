//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package errs provides the error code type used across the library,
// which contains errcode errmsg.
package errs

import (
	"errors"
	"fmt"
	"io"
)

// Code is the library return code.
type Code = int32

// Library return codes.
const (
	// RetOK means success.
	RetOK Code = 0

	// RetTimeout means a blocking operation gave up at its deadline.
	RetTimeout Code = 101
	// RetPrecondition means an operation's precondition could not be met.
	RetPrecondition Code = 102
	// RetInputClosed means an input stage was closed while feeding or draining.
	RetInputClosed Code = 103

	// RetConfigDecodeFail is the error code of a config decoding error.
	RetConfigDecodeFail Code = 201
	// RetConfigWatchFail is the error code of a config watch setup error.
	RetConfigWatchFail Code = 202

	// RetUnknown is the error code for unspecified errors.
	RetUnknown Code = 999
)

// Predefined errors.
var (
	// ErrTimeout is returned when a deadline passes while waiting.
	ErrTimeout = New(RetTimeout, "operation timed out")
	// ErrInputClosed is returned by input stages after Close.
	ErrInputClosed = New(RetInputClosed, "input closed")
	// ErrUnknown is an unknown error.
	ErrUnknown = New(RetUnknown, "unknown error")
)

const (
	// Success is the success prompt string.
	Success = "success"
)

// Error is the error code structure which contains error code and message.
type Error struct {
	Code Code
	Msg  string

	cause error      // internal error, forms the error chain.
	stack stackTrace // call stack, set once per chain.
}

// Error implements the error interface and returns the error description.
func (e *Error) Error() string {
	if e == nil {
		return Success
	}
	if e.cause != nil {
		return fmt.Sprintf("code:%d, msg:%s, caused by %s", e.Code, e.Msg, e.cause.Error())
	}
	return fmt.Sprintf("code:%d, msg:%s", e.Code, e.Msg)
}

// Format implements the fmt.Formatter interface.
func (e *Error) Format(s fmt.State, verb rune) {
	var stackTrace stackTrace
	defer func() {
		if stackTrace != nil {
			stackTrace.Format(s, verb)
		}
	}()
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "code:%d, msg:%s", e.Code, e.Msg)
			if e.stack != nil {
				stackTrace = e.stack
			}
			if e.Unwrap() != nil {
				_, _ = fmt.Fprintf(s, "\nCause by %+v", e.Unwrap())
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = fmt.Fprintf(s, "%%!%c(errs.Error=%s)", verb, e.Error())
	}
}

// Unwrap supports Go 1.13+ error chains.
func (e *Error) Unwrap() error { return e.cause }

// IsTimeout checks whether this error is a timeout error.
func (e *Error) IsTimeout() bool {
	return e.Code == RetTimeout
}

// New creates an error from code and message.
func New(code Code, msg string) error {
	err := &Error{
		Code: code,
		Msg:  msg,
	}
	if traceable {
		err.stack = callers()
	}
	return err
}

// Newf creates an error, msg supports format strings.
func Newf(code Code, format string, params ...interface{}) error {
	return New(code, fmt.Sprintf(format, params...))
}

// Wrap creates a new error that contains the input error.
// The stack is only recorded when err's chain holds no *Error, so a chain
// never holds multiple stacks.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	wrapErr := &Error{
		Code:  code,
		Msg:   msg,
		cause: err,
	}
	var e *Error
	if traceable && !errors.As(err, &e) {
		wrapErr.stack = callers()
	}
	return wrapErr
}

// Wrapf is the same as Wrap, msg supports format strings.
func Wrapf(err error, code Code, format string, params ...interface{}) error {
	return Wrap(err, code, fmt.Sprintf(format, params...))
}

// GetCode gets the error code through error.
func GetCode(e error) Code {
	if e == nil {
		return RetOK
	}
	// Doing type assertion first has a slight performance boost over just
	// using errors.As because of avoiding reflect when the assertion is
	// probably true.
	err, ok := e.(*Error)
	if !ok && !errors.As(e, &err) {
		return RetUnknown
	}
	if err == nil {
		return RetOK
	}
	return err.Code
}

// Msg gets the error message through error.
func Msg(e error) string {
	if e == nil {
		return Success
	}
	err, ok := e.(*Error)
	if !ok && !errors.As(e, &err) {
		return e.Error()
	}
	if err == (*Error)(nil) {
		return Success
	}
	// For error chains, err.Error() prints the whole chain in an
	// appropriate format.
	if err.Unwrap() != nil {
		return err.Error()
	}
	return err.Msg
}
