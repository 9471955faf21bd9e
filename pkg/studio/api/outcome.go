// Package api defines the generation backend contract: the Outcome
// envelope every endpoint resolves with, the request and response
// types, and an HTTP client implementation.
package api

import (
	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
)

// Outcome is the uniform envelope for every backend call. Calls never
// return a Go error directly; transport failures, server rejections and
// expired credentials all land in a failed Outcome so callers have one
// place to look.
//
// Invariants: Success implies Error is empty and IsTokenExpired is
// false; IsTokenExpired implies Success is false.
type Outcome[T any] struct {
	Success        bool   `json:"success"`
	Data           T      `json:"data,omitempty"`
	Error          string `json:"error,omitempty"`
	IsTokenExpired bool   `json:"isTokenExpired,omitempty"`

	// errCode records how the client classified the failure. It never
	// travels on the wire; decoded envelopes are classified in Err.
	errCode string
}

// OK wraps data in a successful Outcome.
func OK[T any](data T) Outcome[T] {
	return Outcome[T]{Success: true, Data: data}
}

// Fail builds a failed Outcome carrying the given error code and message.
func Fail[T any](code, message string) Outcome[T] {
	return Outcome[T]{
		Error:          message,
		IsTokenExpired: code == apperrors.ErrCodeAuthExpired,
		errCode:        code,
	}
}

// FailFromErr builds a failed Outcome from an error, preserving its
// AppError code when it has one.
func FailFromErr[T any](err error) Outcome[T] {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = apperrors.ErrCodeServer
	}
	return Fail[T](code, err.Error())
}

// Err maps a failed Outcome onto the error taxonomy; it returns nil for
// successful outcomes. Decoded envelopes without a client classification
// default to a server rejection, or expired credentials when the
// envelope says so.
func (o Outcome[T]) Err() error {
	if o.Success {
		return nil
	}
	code := o.errCode
	if o.IsTokenExpired {
		code = apperrors.ErrCodeAuthExpired
	}
	if code == "" {
		code = apperrors.ErrCodeServer
	}
	message := o.Error
	if message == "" {
		message = "request failed"
	}
	return apperrors.New(code, message, nil)
}
