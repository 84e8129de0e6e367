// Copyright (c) 2020 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trap enumerates process outcome identifiers.
package trap

type ID int

const (
	Continue     ID = iota // tick returned 0.
	Exit                   // tick returned nonzero.
	ProcExit               // WASI proc_exit was called.
	Fault                  // Guest code trapped.
	MemoryAccess           // Framebuffer region was out of bounds after tick.
	Killed                 // Closed by the host.
)

// Terminal outcomes cause removal from the process tree.
func (id ID) Terminal() bool {
	return id != Continue
}

func (id ID) String() string {
	switch id {
	case Continue:
		return "continue"

	case Exit:
		return "exit"

	case ProcExit:
		return "proc exit"

	case Fault:
		return "fault"

	case MemoryAccess:
		return "memory access out of bounds"

	case Killed:
		return "killed"

	default:
		return "unknown trap"
	}
}
