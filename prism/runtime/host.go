// Copyright (c) 2017 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/tetratelabs/wazero"
	"import.name/pan"
	"prism.computer/prism/runtime/abi"

	. "import.name/type/context"
)

var (
	ErrNoRoot      = errors.New("root process not loaded")
	ErrRootExists  = errors.New("root process already loaded")
	ErrTerminated  = errors.New("process has terminated")
	ErrFrameLength = fmt.Errorf("frame buffer length must be %d", abi.BufferLen)
)

// Host owns the root process and the resources shared by the whole process
// tree.  It is not safe for concurrent use.
type Host struct {
	config Config
	env    Env
	log    *slog.Logger
	cache  wazero.CompilationCache
	root   *Process
}

func NewHost(ctx Context, config Config, env Env) (_ *Host, err error) {
	defer func() { err = pan.Error(recover()) }()

	if env.Stdout == nil {
		env.Stdout = io.Discard
	}
	if env.Stderr == nil {
		env.Stderr = io.Discard
	}
	if env.Log == nil {
		env.Log = slog.Default()
	}

	h := &Host{
		config: config,
		env:    env,
		log:    env.Log,
	}

	if config.CacheDir != "" {
		h.cache, err = wazero.NewCompilationCacheWithDir(config.CacheDir)
		pan.Check(err)
	} else {
		h.cache = wazero.NewCompilationCache()
	}

	return h, nil
}

func (h *Host) Config() Config { return h.config }

// Root process, or nil.
func (h *Host) Root() *Process { return h.root }

// Load the root process from a module file.
func (h *Host) Load(ctx Context, filename string) (*Process, error) {
	wasm, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return h.LoadBytes(ctx, path.Base(filename), wasm)
}

// LoadBytes creates the root process.
func (h *Host) LoadBytes(ctx Context, name string, wasm []byte) (*Process, error) {
	if h.root != nil {
		return nil, ErrRootExists
	}

	p, err := h.newProcess(ctx, nil, name, wasm)
	if err != nil {
		return nil, err
	}

	h.root = p
	return p, nil
}

// Tick the whole process tree.  The frame is overwritten with the root's
// framebuffer followed by the framebuffers of its descendants in depth-first
// creation order.  The root is closed when it returns a terminal status.
func (h *Host) Tick(ctx Context, frame []byte, input uint64, delta float32) (Status, error) {
	if h.root == nil {
		return Status{}, ErrNoRoot
	}

	status, err := h.root.Tick(ctx, frame, input, delta)
	if err != nil {
		return status, err
	}

	if status.Terminal() {
		h.log.InfoContext(ctx, "root process terminated", "status", status)
		if err := h.root.Close(ctx); err != nil {
			h.log.WarnContext(ctx, "root process close error", "error", err)
		}
	}

	return status, nil
}

// Close the process tree and the compilation cache.
func (h *Host) Close(ctx Context) error {
	var errs []error

	if h.root != nil {
		errs = append(errs, h.root.Close(ctx))
	}
	if h.cache != nil {
		errs = append(errs, h.cache.Close(ctx))
		h.cache = nil
	}

	return errors.Join(errs...)
}
