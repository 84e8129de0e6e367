// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package abi defines the binary interface between the host and guest
// programs.
package abi

const (
	BufferWidth  = 336
	BufferHeight = 144
	BufferLen    = BufferWidth * BufferHeight // One palette index per cell.
)

// Default placement of the framebuffer in guest memory.
const (
	FrameAddr = 0x80
	GrowPages = 3
)

const PageSize = 65536

// Guest exports.
const (
	MemoryExport     = "memory"
	TickExport       = "tick"
	InitializeExport = "_initialize"
)

// Host module and its functions.
const (
	HostModule         = "env"
	SpawnRuntime       = "spawn_runtime"
	ReadStdout         = "read_stdout"
	FSCreateFolder     = "fs_create_folder"
	SpawnFailureHandle = 0
)

// Tick status which keeps a process running.  Any other value means that the
// process has exited.
const StatusContinue = 0
