// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package prism contains general documentation for its subpackages.

Prism hosts a fantasy operating system which is a WebAssembly module.  The
host calls the module's tick function once per frame, passing a 64-bit input
bitmask and the elapsed time, and copies a 336x144 palette-index framebuffer
out of its linear memory.  The module may spawn child modules, which are
ticked after their parent in creation order and write their console output
into the parent's pipe.

# Errors

Errors caused by a malformed guest module implement this interface:

	interface {
		ProgramError() bool
	}

Use badprogram.Is (internal) or a type assertion to check for them.  Errors
caused by configured limits implement:

	interface {
		ResourceLimit()
	}

Some errors also implement:

	interface {
		PublicError() string
	}

The public error string contains no host details and may be shown to users.
*/
package prism
