// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/wippyai/wasm-runtime/wat"
	"prism.computer/prism/runtime/abi"

	. "import.name/pan/mustcheck"
)

// Guest memory layout used by test programs.
const (
	slotSpawn  = 0x08 // 8 handles.
	slotRead   = 0x48
	addrIovec  = 0x50
	addrNWrite = 0x58
	addrRead   = 0xc000
	readLen    = 256
	addrWrite  = 0xc100
	addrPath   = 0xc200
	addrBlobs  = 0xd000
)

type cell struct {
	index int
	color byte
}

type span struct {
	addr uint64
	size uint64
}

type segment struct {
	offset uint32
	bytes  []byte
}

// guest describes a test program.  Its tick function counts invocations,
// performs the first-tick actions on the first invocation, and then the
// per-tick actions.
type guest struct {
	spawn    [][]byte // Spawned on first tick.
	spawnRaw []span   // Spawned on first tick, after spawn.
	folder   string   // Created on first tick.
	read     bool
	write    string
	paint    []cell
	fault    bool
	procExit int32 // Positive value is passed to proc_exit.
	exitAt   int32 // Return 1 from tick invocation number exitAt onwards.
	status   int32 // Returned if exitAt is zero.
	data     []segment
	noTick   bool
}

func (g guest) source() string {
	var (
		imports strings.Builder
		first   strings.Builder
		body    strings.Builder
		data    = g.data
	)

	if len(g.spawn)+len(g.spawnRaw) > 0 {
		fmt.Fprintf(&imports, "(import %q %q (func $spawn (param i64 i64) (result i64)))\n", abi.HostModule, abi.SpawnRuntime)
	}
	if g.read {
		fmt.Fprintf(&imports, "(import %q %q (func $read (param i64 i64) (result i64)))\n", abi.HostModule, abi.ReadStdout)
	}
	if g.folder != "" {
		fmt.Fprintf(&imports, "(import %q %q (func $folder (param i64 i64)))\n", abi.HostModule, abi.FSCreateFolder)
	}
	if g.write != "" {
		imports.WriteString(`(import "wasi_snapshot_preview1" "fd_write" (func $fd_write (param i32 i32 i32 i32) (result i32)))` + "\n")
	}
	if g.procExit > 0 {
		imports.WriteString(`(import "wasi_snapshot_preview1" "proc_exit" (func $proc_exit (param i32)))` + "\n")
	}

	blobAddr := uint32(addrBlobs)
	slot := uint32(slotSpawn)
	for _, blob := range g.spawn {
		data = append(data, segment{blobAddr, blob})
		fmt.Fprintf(&first, "(i64.store (i32.const %d) (call $spawn (i64.const %d) (i64.const %d)))\n", slot, blobAddr, len(blob))
		blobAddr += uint32(len(blob))
		slot += 8
	}
	for _, s := range g.spawnRaw {
		fmt.Fprintf(&first, "(i64.store (i32.const %d) (call $spawn (i64.const %d) (i64.const %d)))\n", slot, s.addr, s.size)
		slot += 8
	}

	if g.folder != "" {
		data = append(data, segment{addrPath, []byte(g.folder)})
		fmt.Fprintf(&first, "(call $folder (i64.const %d) (i64.const %d))\n", addrPath, len(g.folder))
	}

	if first.Len() > 0 {
		fmt.Fprintf(&body, "(if (i32.eq (global.get $ticks) (i32.const 1)) (then\n%s))\n", first.String())
	}

	if g.read {
		fmt.Fprintf(&body, "(i64.store (i32.const %d) (call $read (i64.const %d) (i64.const %d)))\n", slotRead, addrRead, readLen)
	}

	if g.write != "" {
		iovec := make([]byte, 8)
		binary.LittleEndian.PutUint32(iovec[0:], addrWrite)
		binary.LittleEndian.PutUint32(iovec[4:], uint32(len(g.write)))
		data = append(data, segment{addrIovec, iovec}, segment{addrWrite, []byte(g.write)})
		fmt.Fprintf(&body, "(drop (call $fd_write (i32.const 1) (i32.const %d) (i32.const 1) (i32.const %d)))\n", addrIovec, addrNWrite)
	}

	for _, c := range g.paint {
		fmt.Fprintf(&body, "(i32.store8 (i32.const %d) (i32.const %d))\n", abi.FrameAddr+c.index, c.color)
	}

	if g.procExit > 0 {
		fmt.Fprintf(&body, "(call $proc_exit (i32.const %d))\n", g.procExit)
	}

	switch {
	case g.fault:
		body.WriteString("(unreachable)\n")
	case g.exitAt > 0:
		fmt.Fprintf(&body, "(i32.ge_u (global.get $ticks) (i32.const %d))\n", g.exitAt)
	default:
		fmt.Fprintf(&body, "(i32.const %d)\n", g.status)
	}

	export := ""
	if !g.noTick {
		export = fmt.Sprintf("(export %q) ", abi.TickExport)
	}

	var b strings.Builder
	b.WriteString("(module\n")
	b.WriteString(imports.String())
	fmt.Fprintf(&b, "(memory (export %q) 1)\n", abi.MemoryExport)
	b.WriteString("(global $ticks (mut i32) (i32.const 0))\n")
	for _, s := range data {
		fmt.Fprintf(&b, "(data (i32.const %d) %s)\n", s.offset, watString(s.bytes))
	}
	fmt.Fprintf(&b, "(func %s(param i64 f32) (result i32)\n", export)
	b.WriteString("(global.set $ticks (i32.add (global.get $ticks) (i32.const 1)))\n")
	b.WriteString(body.String())
	b.WriteString("))\n")
	return b.String()
}

func (g guest) bytes() []byte {
	return Must(wat.Compile(g.source()))
}

// watString quotes arbitrary bytes as a text format string.
func watString(b []byte) string {
	var s strings.Builder
	s.WriteByte('"')
	for _, c := range b {
		fmt.Fprintf(&s, `\%02x`, c)
	}
	s.WriteByte('"')
	return s.String()
}
