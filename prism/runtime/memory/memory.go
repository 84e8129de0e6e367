// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memory copies bytes between host buffers and guest linear memory.
// Guests are not trusted to supply valid ranges: the copy functions report
// failure instead of panicking, and never perform partial copies.
package memory

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"
	"prism.computer/internal/error/resourcelimit"
)

var ErrOutOfRange = errors.New("guest memory range out of bounds")

func span(mem api.Memory, addr uint64, size uint64) (uint32, uint32, bool) {
	if mem == nil || addr > math.MaxUint32 || size > math.MaxUint32 {
		return 0, 0, false
	}
	if addr+size > uint64(mem.Size()) {
		return 0, 0, false
	}
	return uint32(addr), uint32(size), true
}

// Valid checks if the range lies within the current memory size.
func Valid(mem api.Memory, addr, size uint64) bool {
	_, _, ok := span(mem, addr, size)
	return ok
}

// Read guest memory into buf.
func Read(mem api.Memory, addr uint64, buf []byte) bool {
	offset, size, ok := span(mem, addr, uint64(len(buf)))
	if !ok {
		return false
	}
	if size == 0 {
		return true
	}

	b, ok := mem.Read(offset, size)
	if !ok {
		return false
	}
	copy(buf, b)
	return true
}

// Write data into guest memory.
func Write(mem api.Memory, addr uint64, data []byte) bool {
	offset, _, ok := span(mem, addr, uint64(len(data)))
	if !ok {
		return false
	}
	if len(data) == 0 {
		return true
	}

	return mem.Write(offset, data)
}

// ReadBytes returns a copy of a guest memory range.
func ReadBytes(mem api.Memory, addr, size uint64) ([]byte, bool) {
	if !Valid(mem, addr, size) {
		return nil, false
	}

	buf := make([]byte, size)
	if !Read(mem, addr, buf) {
		return nil, false
	}
	return buf, true
}

// ReadString decodes UTF-8 text from guest memory.
func ReadString(mem api.Memory, addr, size uint64) (string, bool) {
	b, ok := ReadBytes(mem, addr, size)
	if !ok || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// Reserve grows memory by the given number of pages and zero-fills the region
// starting at addr.  The region stays valid as long as the guest doesn't
// shrink its memory (which WebAssembly can't do).
func Reserve(mem api.Memory, growPages uint32, addr uint32, size int) error {
	if mem == nil {
		return errors.New("guest has no memory")
	}

	if growPages > 0 {
		if _, ok := mem.Grow(growPages); !ok {
			return resourcelimit.Errorf("guest memory growth by %d pages refused", growPages)
		}
	}

	if !Write(mem, uint64(addr), make([]byte, size)) {
		return fmt.Errorf("%w: reserved region %#x+%d exceeds %d bytes", ErrOutOfRange, addr, size, mem.Size())
	}
	return nil
}
