// Copyright (c) 2021 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scope implements capability filters for guest processes.
package scope

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Capabilities known to the host function bridge.
const (
	Spawn  = "spawn"  // env.spawn_runtime
	Stdout = "stdout" // env.read_stdout
	FS     = "fs"     // env.fs_create_folder and the directory mount
)

// Names of all capabilities.
func Names() []string {
	return []string{FS, Spawn, Stdout}
}

func IsValid(s string) bool {
	if s == "" || len(s) > 255 {
		return false
	}

	for _, c := range []byte(s) {
		if c >= '0' && c <= '9' {
			continue
		}
		if c >= 'a' && c <= 'z' {
			continue
		}
		switch c {
		case '-', '.', '_':
			continue
		}

		return false
	}

	return true
}

// Scope is dynamic capability filter.  It is unrestricted by default.
type Scope struct {
	mu    sync.Mutex
	scope map[string]struct{} // nil means unrestricted.
}

// Restrict sets the scope to the intersection of the existing scope and the
// argument.
func (x *Scope) Restrict(scope []string) error {
	if len(scope) > 255 {
		return errors.New("scope is too large")
	}
	for _, s := range scope {
		if !IsValid(s) {
			return fmt.Errorf("scope string is invalid: %q", s)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	m := make(map[string]struct{})

	if x.scope == nil {
		for _, s := range scope {
			m[s] = struct{}{}
		}
	} else {
		for _, s := range scope {
			if _, found := x.scope[s]; found {
				m[s] = struct{}{}
			}
		}
	}

	x.scope = m
	return nil
}

// Contains returns true if the argument is encompassed in the current scope.
func (x *Scope) Contains(scope string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.scope == nil {
		return true
	}

	_, found := x.scope[scope]
	return found
}

// Scope returns a sorted scope array if restricted, or nil if unrestricted.
func (x *Scope) Scope() (scope []string, restricted bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.scope == nil {
		return nil, false
	}

	scope = make([]string, 0, len(x.scope))
	for s := range x.scope {
		scope = append(scope, s)
	}
	sort.Strings(scope)
	return scope, true
}

// Inherit returns an independent copy which can be restricted further without
// affecting the original.
func (x *Scope) Inherit() *Scope {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.scope == nil {
		return new(Scope)
	}

	m := make(map[string]struct{}, len(x.scope))
	for s := range x.scope {
		m[s] = struct{}{}
	}
	return &Scope{scope: m}
}
