// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"import.name/confi"
	"import.name/pan"
	"prism.computer/internal/logging"
	"prism.computer/prism/runtime"
	"prism.computer/prism/vfs"
)

const (
	DefaultFrameRate    = 60
	DefaultVFSPath      = "fs.json"
	DefaultHistoryLimit = 1000
)

type Config struct {
	Runtime runtime.Config

	Frame struct {
		Rate  float64 // Frames per second.
		Limit int     // Stop after this many frames; 0 means no limit.
		Dump  string  // Write the last frame to this file.
	}

	VFS struct {
		Path string // Empty disables the virtual file system.
	}

	Shell struct {
		HistoryFile  string
		HistoryLimit int
	}

	Log logging.Config
}

var c = new(Config)

const mainUsage = `Usage: %s [options] command [arguments]

Commands:
  run  run a system image (wasm module) in the terminal
  vfs  edit the virtual file system interactively

`

var commands = map[string]struct {
	usage string
	do    func(log *slog.Logger) int
}{
	"run": {
		usage: "<module.wasm>",
		do: func(log *slog.Logger) int {
			return run(log, flag.Arg(0))
		},
	},

	"vfs": {
		do: func(log *slog.Logger) int {
			return shell(log)
		},
	},
}

func main() {
	log.SetFlags(0)

	defer func() {
		pan.Fatal(recover())
	}()

	c.Runtime = runtime.DefaultConfig
	c.Frame.Rate = DefaultFrameRate
	c.VFS.Path = DefaultVFSPath
	c.Shell.HistoryLimit = DefaultHistoryLimit

	flag.Var(confi.FileReader(c), "f", "read a configuration file")
	flag.Var(confi.Assigner(c), "o", "set a configuration option (path.to.key=value)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), mainUsage, flag.CommandLine.Name())
		confi.FlagUsage(nil, c)()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	progname := flag.CommandLine.Name()
	os.Args = flag.Args()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	command, ok := commands[flag.CommandLine.Name()]
	if !ok {
		flag.Usage()
		os.Exit(2)
	}

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] %s %s\n", progname, flag.CommandLine.Name(), command.usage)
	}
	flag.CommandLine.Usage = flag.Usage
	flag.Parse()

	if command.usage != "" && flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.Init(c.Log)
	if err != nil {
		logger.Error("journal initialization failed", "error", err)
		os.Exit(1)
	}

	os.Exit(command.do(logger))
}

// loadVFS returns nil if the file system is disabled.
func loadVFS(log *slog.Logger) *vfs.FS {
	if c.VFS.Path == "" {
		return nil
	}

	fs, err := vfs.Load(c.VFS.Path)
	pan.Check(err)

	log.Debug("file system loaded", "path", fs.DiskPath())
	return fs
}
