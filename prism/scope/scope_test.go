// Copyright (c) 2021 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	for _, s := range Names() {
		assert.True(t, IsValid(s), s)
	}

	assert.False(t, IsValid(""))
	assert.False(t, IsValid("Spawn"))
	assert.False(t, IsValid("fs/create"))
}

func TestUnrestricted(t *testing.T) {
	x := new(Scope)

	for _, s := range Names() {
		assert.True(t, x.Contains(s))
	}

	scope, restricted := x.Scope()
	assert.False(t, restricted)
	assert.Nil(t, scope)
}

func TestRestrictIntersects(t *testing.T) {
	x := new(Scope)

	assert.NoError(t, x.Restrict([]string{Spawn, Stdout}))
	assert.True(t, x.Contains(Spawn))
	assert.False(t, x.Contains(FS))

	assert.NoError(t, x.Restrict([]string{Stdout, FS}))
	assert.False(t, x.Contains(Spawn))
	assert.False(t, x.Contains(FS))
	assert.True(t, x.Contains(Stdout))

	scope, restricted := x.Scope()
	assert.True(t, restricted)
	assert.Equal(t, []string{Stdout}, scope)
}

func TestRestrictInvalid(t *testing.T) {
	x := new(Scope)
	assert.Error(t, x.Restrict([]string{"not valid"}))

	_, restricted := x.Scope()
	assert.False(t, restricted)
}

func TestInherit(t *testing.T) {
	parent := new(Scope)
	assert.NoError(t, parent.Restrict([]string{Spawn, FS}))

	child := parent.Inherit()
	names, restricted := child.Scope()
	assert.True(t, restricted)
	assert.Equal(t, []string{FS, Spawn}, names)

	assert.NoError(t, child.Restrict([]string{FS}))
	assert.False(t, child.Contains(Spawn))
	assert.True(t, parent.Contains(Spawn))

	assert.True(t, new(Scope).Inherit().Contains(Spawn))
}
