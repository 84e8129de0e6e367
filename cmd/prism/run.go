// Copyright (c) 2021 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/term"
	"prism.computer/prism/input"
	"prism.computer/prism/runtime"
	"prism.computer/prism/runtime/abi"
	"prism.computer/prism/trap"

	. "import.name/pan/mustcheck"
)

const ctrlC = 0x03

func run(log *slog.Logger, filename string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := runtime.Env{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    log,
	}

	fs := loadVFS(log)
	if fs != nil {
		env.Folders = fs
		defer func() {
			if err := fs.Flush(); err != nil {
				log.Error("file system flush failed", "error", err)
			} else {
				log.Debug("file system flushed", "path", fs.DiskPath())
			}
		}()
	}

	host := Must(runtime.NewHost(ctx, c.Runtime, env))
	defer func() {
		if err := host.Close(context.Background()); err != nil {
			log.Warn("host close error", "error", err)
		}
	}()

	Must(host.Load(ctx, filename))

	keys := new(atomic.Uint64)

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		state := Must(term.MakeRaw(fd))
		defer term.Restore(fd, state)

		go readKeys(os.Stdin, keys, stop)
	}

	frame := make([]byte, abi.BufferLen)

	status, frames, err := loop(ctx, host, frame, keys, c.Frame.Rate, c.Frame.Limit)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("tick failed", "error", err, "frames", frames)
		return 1
	}

	log.Info("stopped", "frames", frames, "status", status)

	if c.Frame.Dump != "" {
		if err := os.WriteFile(c.Frame.Dump, frame, 0o644); err != nil {
			log.Error("frame dump failed", "error", err)
		}
	}

	return exitCode(status)
}

// loop ticks the host at the given rate until the root process terminates,
// the frame limit is reached, or the context is done.  Keys pressed since the
// previous frame are held during the next one.
func loop(ctx context.Context, host *runtime.Host, frame []byte, keys *atomic.Uint64, rate float64, limit int) (status runtime.Status, frames int, err error) {
	interval := time.Second / 60
	if rate > 0 {
		interval = time.Duration(float64(time.Second) / rate)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()

	for limit <= 0 || frames < limit {
		var now time.Time

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return

		case now = <-ticker.C:
		}

		delta := float32(now.Sub(last).Seconds())
		last = now

		status, err = host.Tick(ctx, frame, keys.Swap(0), delta)
		if err != nil {
			return
		}
		frames++

		if status.Terminal() {
			return
		}
	}

	return
}

// readKeys accumulates decoded keys until r fails.  Ctrl-C calls interrupt.
func readKeys(r io.Reader, keys *atomic.Uint64, interrupt func()) {
	buf := make([]byte, 64)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, b := range buf[:n] {
				if b == ctrlC {
					interrupt()
				}
			}
			keys.Or(input.Decode(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

func exitCode(status runtime.Status) int {
	switch status.Cause {
	case trap.Continue:
		return 0

	case trap.Exit, trap.ProcExit:
		return int(status.Code & 0xff)

	default:
		return 1
	}
}
