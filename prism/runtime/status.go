// Copyright (c) 2020 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"fmt"

	"prism.computer/prism/trap"
)

type State int

const (
	StateCreated State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"

	case StateRunning:
		return "running"

	case StateTerminated:
		return "terminated"

	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status of a tick.  Code is the value returned by the guest's tick function,
// or the proc_exit code.
type Status struct {
	Code  uint32
	Cause trap.ID
}

// Terminal status means that the process has exited.
func (s Status) Terminal() bool {
	return s.Cause.Terminal()
}

func (s Status) String() string {
	switch s.Cause {
	case trap.Continue:
		return s.Cause.String()

	case trap.Exit, trap.ProcExit:
		return fmt.Sprintf("%s %d", s.Cause, s.Code)

	default:
		return s.Cause.String()
	}
}
