// Copyright (c) 2017 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"import.name/pan"
	"prism.computer/internal/error/badprogram"
	"prism.computer/prism/pipe"
	"prism.computer/prism/runtime/abi"
	"prism.computer/prism/runtime/memory"
	"prism.computer/prism/scope"
	"prism.computer/prism/trap"

	. "import.name/type/context"
)

// Process is a guest instance with its children.  Each process has a private
// engine runtime, so closing a process releases its module and memory.
type Process struct {
	id        uuid.UUID
	host      *Host
	parent    *Process
	depth     int
	log       *slog.Logger
	rt        wazero.Runtime
	module    api.Module
	tick      api.Function
	mem       api.Memory
	frameAddr uint32 // Assigned once.
	scope     *scope.Scope
	spawn     *scope.Scope // Inherited by children.
	pipe      *pipe.Pipe   // Console output of children.
	children  []*Process
	state     State
	status    Status
}

// newProcess compiles and instantiates a guest.  Errors caused by the module
// are badprogram errors.
func (h *Host) newProcess(ctx Context, parent *Process, name string, wasm []byte) (_ *Process, err error) {
	defer func() { err = pan.Error(recover()) }()

	p := &Process{
		id:        uuid.New(),
		host:      h,
		parent:    parent,
		frameAddr: h.config.FrameAddr,
		pipe:      pipe.New(h.config.PipeLimit),
	}

	if parent == nil {
		p.scope = new(scope.Scope)
		if len(h.config.Scope) > 0 {
			pan.Check(p.scope.Restrict(h.config.Scope))
		}
	} else {
		p.depth = parent.depth + 1
		p.scope = parent.spawn.Inherit()
	}

	p.spawn = p.scope.Inherit()
	if len(h.config.ChildScope) > 0 {
		pan.Check(p.spawn.Restrict(h.config.ChildScope))
	}

	p.log = h.log.With("proc", p.id.String(), "depth", p.depth)

	rtConfig := wazero.NewRuntimeConfig().
		WithCompilationCache(h.cache).
		WithCloseOnContextDone(h.config.Interruptible)
	if h.config.MemoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(h.config.MemoryLimitPages)
	}

	p.rt = wazero.NewRuntimeWithConfig(ctx, rtConfig)
	created := false
	defer func() {
		if !created {
			p.rt.Close(ctx)
		}
	}()

	compiled, err := p.rt.CompileModule(ctx, wasm)
	if err != nil {
		pan.Panic(badprogram.Wrap("module compilation failed", err))
	}

	pan.Check(checkExports(compiled))

	_, err = wasi_snapshot_preview1.Instantiate(ctx, p.rt)
	pan.Check(err)

	pan.Check(p.instantiateBridge(ctx))

	var stdout, stderr io.Writer
	if parent == nil {
		stdout = h.env.Stdout
		stderr = h.env.Stderr
	} else {
		stdout = parent.pipe
		stderr = parent.pipe
	}

	modConfig := wazero.NewModuleConfig().
		WithName(name).
		WithStdout(stdout).
		WithStderr(stderr).
		WithStartFunctions(abi.InitializeExport)

	if m := h.config.Mount; m.Dir != "" && p.scope.Contains(scope.FS) {
		fsConfig := wazero.NewFSConfig()
		if m.ReadOnly {
			fsConfig = fsConfig.WithReadOnlyDirMount(m.Dir, m.Guest)
		} else {
			fsConfig = fsConfig.WithDirMount(m.Dir, m.Guest)
		}
		modConfig = modConfig.WithFSConfig(fsConfig)
	}

	p.module, err = p.rt.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		pan.Panic(badprogram.Wrap("module instantiation failed", err))
	}

	p.tick = p.module.ExportedFunction(abi.TickExport)
	p.mem = p.module.ExportedMemory(abi.MemoryExport)

	pan.Check(memory.Reserve(p.mem, h.config.GrowPages, p.frameAddr, abi.BufferLen))

	if parent == nil {
		p.log.InfoContext(ctx, "process created", "module", name)
	} else {
		p.log.DebugContext(ctx, "process created", "module", name, "parent", parent.id.String())
	}

	created = true
	return p, nil
}

func checkExports(compiled wazero.CompiledModule) error {
	def, found := compiled.ExportedFunctions()[abi.TickExport]
	if !found {
		return badprogram.Errorf("%s function not exported", abi.TickExport)
	}

	if !slices.Equal(def.ParamTypes(), []api.ValueType{api.ValueTypeI64, api.ValueTypeF32}) ||
		!slices.Equal(def.ResultTypes(), []api.ValueType{api.ValueTypeI32}) {
		return badprogram.Errorf("%s function has wrong signature", abi.TickExport)
	}

	if _, found := compiled.ExportedMemories()[abi.MemoryExport]; !found {
		return badprogram.Errorf("%s not exported", abi.MemoryExport)
	}

	return nil
}

func (p *Process) ID() uuid.UUID       { return p.id }
func (p *Process) Parent() *Process    { return p.parent }
func (p *Process) Depth() int          { return p.depth }
func (p *Process) State() State        { return p.state }
func (p *Process) Output() *pipe.Pipe  { return p.pipe }
func (p *Process) Scope() *scope.Scope { return p.scope }

// Status returned by the last tick.
func (p *Process) Status() Status { return p.status }

// Children in creation order.  The slice must not be modified.
func (p *Process) Children() []*Process {
	return p.children
}

// Count processes in the subtree, including this one.
func (p *Process) Count() int {
	n := 1
	for _, c := range p.children {
		n += c.Count()
	}
	return n
}

// Walk the subtree depth-first in tick order.
func (p *Process) Walk(f func(*Process)) {
	f(p)
	for _, c := range p.children {
		c.Walk(f)
	}
}

// Restrict the capabilities of this process and all processes it spawns
// later.  Capabilities can't be widened.
func (p *Process) Restrict(names []string) error {
	if err := p.scope.Restrict(names); err != nil {
		return err
	}
	return p.spawn.Restrict(names)
}

// RestrictChildren narrows the capabilities inherited by processes spawned
// later.
func (p *Process) RestrictChildren(names []string) error {
	return p.spawn.Restrict(names)
}

// Tick invokes the guest's tick function, copies the guest's framebuffer into
// frame, and ticks the children in creation order.  Children which terminate
// are removed and closed before the next sibling is ticked.
//
// The returned error is fatal for the host.  Guest faults are reported via
// Status.
func (p *Process) Tick(ctx Context, frame []byte, input uint64, delta float32) (Status, error) {
	if len(frame) != abi.BufferLen {
		return Status{}, ErrFrameLength
	}
	if p.state == StateTerminated {
		return p.status, ErrTerminated
	}
	if err := ctx.Err(); err != nil {
		return Status{Cause: trap.Killed}, err
	}

	p.state = StateRunning

	status, err := p.call(ctx, input, delta)
	if err != nil {
		return status, err
	}

	switch status.Cause {
	case trap.Continue, trap.Exit:
		if !memory.Read(p.mem, uint64(p.frameAddr), frame) {
			p.log.WarnContext(ctx, "framebuffer out of bounds", "addr", p.frameAddr)
			status.Cause = trap.MemoryAccess
		}
	}

	if err := p.tickChildren(ctx, frame, input, delta); err != nil {
		return status, err
	}

	p.status = status
	if status.Terminal() {
		p.state = StateTerminated
	}

	return status, nil
}

func (p *Process) call(ctx Context, input uint64, delta float32) (Status, error) {
	results, err := p.tick.Call(ctx, input, api.EncodeF32(delta))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Status{Cause: trap.Killed}, ctxErr
		}

		var exit *sys.ExitError
		if errors.As(err, &exit) {
			return Status{Code: exit.ExitCode(), Cause: trap.ProcExit}, nil
		}

		p.log.InfoContext(ctx, "guest fault", "error", err)
		return Status{Cause: trap.Fault}, nil
	}

	code := api.DecodeU32(results[0])
	if code == abi.StatusContinue {
		return Status{Cause: trap.Continue}, nil
	}
	return Status{Code: code, Cause: trap.Exit}, nil
}

func (p *Process) tickChildren(ctx Context, frame []byte, input uint64, delta float32) error {
	live := p.children[:0]

	for i, c := range p.children {
		status, err := c.Tick(ctx, frame, input, delta)
		if err != nil {
			live = append(live, p.children[i:]...)
			p.children = live
			return err
		}

		if status.Terminal() {
			c.log.DebugContext(ctx, "process terminated", "status", status)
			if err := c.Close(ctx); err != nil {
				c.log.WarnContext(ctx, "process close error", "error", err)
			}
			continue
		}

		live = append(live, c)
	}

	clear(p.children[len(live):])
	p.children = live
	return nil
}

// Close the process and its subtree.  It may be called multiple times.
func (p *Process) Close(ctx Context) (err error) {
	for _, c := range p.children {
		if e := c.Close(ctx); err == nil {
			err = e
		}
	}
	p.children = nil

	if p.state != StateTerminated {
		p.state = StateTerminated
		p.status = Status{Cause: trap.Killed}
	}

	if p.rt != nil {
		if e := p.rt.Close(ctx); err == nil {
			err = e
		}
		p.rt = nil
		p.module = nil
		p.tick = nil
		p.mem = nil
	}

	p.pipe.Reset()
	return
}
