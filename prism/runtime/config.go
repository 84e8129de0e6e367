// Copyright (c) 2017 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"io"
	"log/slog"

	"prism.computer/prism/runtime/abi"
)

const (
	MaxChildren      = 64    // Per process.
	MaxDepth         = 8     // Root is at depth 0.
	MemoryLimitPages = 16384 // 1 GiB per guest.
)

type MountConfig struct {
	Dir      string // Host directory; empty disables the mount.
	Guest    string // Guest path.
	ReadOnly bool
}

type Config struct {
	FrameAddr        uint32
	GrowPages        uint32
	MaxChildren      int
	MaxDepth         int
	PipeLimit        int // Unread bytes retained per process; 0 is unbounded.
	MemoryLimitPages uint32
	Interruptible    bool   // Context cancellation interrupts running guest code.
	CacheDir         string // Compilation cache directory; empty means in-memory.
	Mount            MountConfig
	Scope            []string // Root capabilities; empty means unrestricted.
	ChildScope       []string // Narrows capabilities of spawned processes.
}

var DefaultConfig = Config{
	FrameAddr:        abi.FrameAddr,
	GrowPages:        abi.GrowPages,
	MaxChildren:      MaxChildren,
	MaxDepth:         MaxDepth,
	MemoryLimitPages: MemoryLimitPages,
	Mount: MountConfig{
		Dir:   "disk",
		Guest: "/",
	},
}

// FolderCreator is the virtual file system as seen by guests.
type FolderCreator interface {
	CreateFolderPath(path string) error
}

// Env connects the host to its collaborators.  Zero values are replaced with
// defaults.
type Env struct {
	Stdout  io.Writer     // Console of the root process.
	Stderr  io.Writer     // Error console of the root process.
	Folders FolderCreator // Optional.
	Log     *slog.Logger
}
