package model

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeInvalidGeometry      Code = "INVALID_GEOMETRY"
	CodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	CodeNotFound             Code = "NOT_FOUND"
	CodeInternal             Code = "INTERNAL"
)

// Error is a structured failure reported to the caller before any field is computed.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// 非正尺寸，或形状参数导致净面积 <= 0
func InvalidGeometry(format string, args ...interface{}) error {
	return newError(CodeInvalidGeometry, format, args...)
}

// 风扇数量或型号参数不合法
func InvalidConfiguration(format string, args ...interface{}) error {
	return newError(CodeInvalidConfiguration, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(CodeNotFound, format, args...)
}

func Wrap(code Code, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	e := newError(code, format, args...)
	e.Cause = cause
	return e
}

// IsCode reports whether any error in err's chain carries code, including
// structured errors wrapped as the cause of another one.
func IsCode(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// CodeOf returns the code of the first structured error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
