// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resourcelimit

import (
	"errors"
	"fmt"
)

type Error interface {
	error
	ResourceLimit()
}

// New error with public information.
func New(s string) Error {
	return simple(s)
}

// Errorf formats public information.
func Errorf(format string, args ...interface{}) Error {
	return simple(fmt.Sprintf(format, args...))
}

type simple string

func (s simple) Error() string       { return string(s) }
func (s simple) PublicError() string { return string(s) }
func (s simple) ResourceLimit()      {}

// Is a resource limit error?
func Is(err error) bool {
	var e Error
	return errors.As(err, &e)
}
