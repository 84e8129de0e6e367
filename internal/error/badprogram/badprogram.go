// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package badprogram describes guest modules which can't be run.
package badprogram

import (
	"errors"
	"fmt"
)

// Error is public.
func Error(s string) error {
	return errorType(s)
}

// Errorf formats public information.
func Errorf(format string, args ...interface{}) error {
	return errorType(fmt.Sprintf(format, args...))
}

// Wrap an engine error with public context.  The cause stays reachable via
// errors.Unwrap.
func Wrap(public string, cause error) error {
	return &wrapped{public, cause}
}

type errorType string

func (s errorType) Error() string       { return string(s) }
func (s errorType) PublicError() string { return string(s) }
func (s errorType) ProgramError() bool  { return true }

type wrapped struct {
	public string
	cause  error
}

func (e *wrapped) Error() string       { return e.public + ": " + e.cause.Error() }
func (e *wrapped) PublicError() string { return e.public }
func (e *wrapped) ProgramError() bool  { return true }
func (e *wrapped) Unwrap() error       { return e.cause }

type programError interface {
	error
	ProgramError() bool
}

// Is a program error?
func Is(err error) bool {
	var e programError
	return errors.As(err, &e) && e.ProgramError()
}
