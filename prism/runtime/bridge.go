// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"

	"github.com/tetratelabs/wazero/api"
	"prism.computer/internal/error/resourcelimit"
	"prism.computer/prism/runtime/abi"
	"prism.computer/prism/runtime/memory"
	"prism.computer/prism/scope"

	. "import.name/type/context"
)

var (
	i64i64     = []api.ValueType{api.ValueTypeI64, api.ValueTypeI64}
	i64        = []api.ValueType{api.ValueTypeI64}
	noValues   = []api.ValueType{}
	spawnName  = abi.HostModule + "." + abi.SpawnRuntime
	readName   = abi.HostModule + "." + abi.ReadStdout
	folderName = abi.HostModule + "." + abi.FSCreateFolder
)

var errSpawnScope = errors.New("spawn capability not in scope")

// bridge is the context of host calls made by one process.  The calls may
// modify the process's children and drain its output pipe, but never tick
// anything or touch the framebuffer.
type bridge struct {
	proc *Process
}

func (p *Process) instantiateBridge(ctx Context) error {
	b := &bridge{p}

	_, err := p.rt.NewHostModuleBuilder(abi.HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(b.spawnRuntime), i64i64, i64).
		WithName(spawnName).
		Export(abi.SpawnRuntime).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(b.readStdout), i64i64, i64).
		WithName(readName).
		Export(abi.ReadStdout).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(b.fsCreateFolder), i64i64, noValues).
		WithName(folderName).
		Export(abi.FSCreateFolder).
		Instantiate(ctx)
	return err
}

func (b *bridge) spawnRuntime(ctx Context, mod api.Module, stack []uint64) {
	stack[0] = b.spawn(ctx, mod.Memory(), stack[0], stack[1])
}

func (b *bridge) readStdout(ctx Context, mod api.Module, stack []uint64) {
	stack[0] = b.read(mod.Memory(), stack[0], stack[1])
}

func (b *bridge) fsCreateFolder(ctx Context, mod api.Module, stack []uint64) {
	b.createFolder(ctx, mod.Memory(), stack[0], stack[1])
}

// spawn returns 1 + child index, or 0 on failure.
func (b *bridge) spawn(ctx Context, mem api.Memory, ptr, size uint64) uint64 {
	p := b.proc

	if err := p.checkSpawn(); err != nil {
		p.log.DebugContext(ctx, "spawn denied", "error", err)
		return abi.SpawnFailureHandle
	}

	wasm, ok := memory.ReadBytes(mem, ptr, size)
	if !ok {
		p.log.DebugContext(ctx, "spawn module out of bounds", "ptr", ptr, "len", size)
		return abi.SpawnFailureHandle
	}

	child, err := p.host.newProcess(ctx, p, abi.SpawnRuntime, wasm)
	if err != nil {
		p.log.DebugContext(ctx, "spawn failed", "error", err)
		return abi.SpawnFailureHandle
	}

	p.children = append(p.children, child)
	return uint64(len(p.children))
}

func (p *Process) checkSpawn() error {
	config := &p.host.config

	if !p.scope.Contains(scope.Spawn) {
		return errSpawnScope
	}
	if config.MaxChildren > 0 && len(p.children) >= config.MaxChildren {
		return resourcelimit.Errorf("child limit %d reached", config.MaxChildren)
	}
	if config.MaxDepth > 0 && p.depth >= config.MaxDepth {
		return resourcelimit.Errorf("depth limit %d reached", config.MaxDepth)
	}
	return nil
}

// read drains the calling process's own output pipe.
func (b *bridge) read(mem api.Memory, ptr, size uint64) uint64 {
	p := b.proc

	if size == 0 || !p.scope.Contains(scope.Stdout) || !memory.Valid(mem, ptr, size) {
		return 0
	}

	n := uint64(p.pipe.Len())
	if n > size {
		n = size
	}
	if n == 0 {
		return 0
	}

	buf := make([]byte, n)
	m, _ := p.pipe.Read(buf)
	memory.Write(mem, ptr, buf[:m])
	return uint64(m)
}

func (b *bridge) createFolder(ctx Context, mem api.Memory, ptr, size uint64) {
	p := b.proc
	folders := p.host.env.Folders

	if folders == nil || !p.scope.Contains(scope.FS) {
		p.log.DebugContext(ctx, "folder creation unavailable")
		return
	}

	path, ok := memory.ReadString(mem, ptr, size)
	if !ok {
		p.log.DebugContext(ctx, "folder path invalid", "ptr", ptr, "len", size)
		return
	}

	if err := folders.CreateFolderPath(path); err != nil {
		p.log.InfoContext(ctx, "folder creation failed", "path", path, "error", err)
		return
	}

	p.log.DebugContext(ctx, "folder created", "path", path)
}
