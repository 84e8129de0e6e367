// Copyright (c) 2020 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminal(t *testing.T) {
	assert.False(t, Continue.Terminal())

	for _, id := range []ID{Exit, ProcExit, Fault, MemoryAccess, Killed} {
		assert.True(t, id.Terminal(), id.String())
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "continue", Continue.String())
	assert.Equal(t, "proc exit", ProcExit.String())
	assert.Equal(t, "unknown trap", ID(100).String())
}
