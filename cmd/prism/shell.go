// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"
	"prism.computer/prism/vfs"

	. "import.name/pan/mustcheck"
)

const shellHelp = `Commands:
  ls [folder]          list a folder
  mkdir <path>         create a folder
  touch <path>         create a file
  rm <path>            remove a file or a folder
  save                 write the file system to disk
  exit                 save and exit
`

var errShellExit = errors.New("exit")

func shell(log *slog.Logger) int {
	fs := loadVFS(log)
	if fs == nil {
		log.Error("file system is disabled")
		return 1
	}

	rl := Must(readline.NewEx(&readline.Config{
		Prompt:       "vfs> ",
		HistoryFile:  c.Shell.HistoryFile,
		HistoryLimit: c.Shell.HistoryLimit,
	}))
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err != io.EOF && err != readline.ErrInterrupt {
				log.Error("readline failed", "error", err)
			}
			break
		}

		if err := execute(fs, rl.Stdout(), line); err != nil {
			if err == errShellExit {
				break
			}
			fmt.Fprintln(rl.Stderr(), err)
		}
	}

	if err := fs.Flush(); err != nil {
		log.Error("file system flush failed", "error", err)
		return 1
	}
	return 0
}

// execute a shell command line.  errShellExit is returned by the exit command.
func execute(fs *vfs.FS, w io.Writer, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	name, args := args[0], args[1:]

	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s: wrong number of arguments", name)
		}
		return nil
	}

	switch name {
	case "ls":
		if len(args) > 1 {
			return need(1)
		}
		var path string
		if len(args) == 1 {
			path = args[0]
		}

		entries, err := fs.ReadDir(path)
		if err != nil {
			return fmt.Errorf("ls: %w", err)
		}
		for _, e := range entries {
			if e.Folder {
				fmt.Fprintf(w, "%s/\n", e.Name)
			} else {
				fmt.Fprintf(w, "%s\t%s\n", e.Name, e.DiskPath)
			}
		}

	case "mkdir":
		if err := need(1); err != nil {
			return err
		}
		if err := fs.CreateFolderPath(args[0]); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}

	case "touch":
		if err := need(1); err != nil {
			return err
		}
		dir, file := splitLast(args[0])
		if err := fs.CreateFile(dir, file); err != nil {
			return fmt.Errorf("touch: %w", err)
		}

	case "rm":
		if err := need(1); err != nil {
			return err
		}
		if err := fs.Remove(args[0]); err != nil {
			return fmt.Errorf("rm: %w", err)
		}

	case "save":
		if err := need(0); err != nil {
			return err
		}
		if err := fs.Flush(); err != nil {
			return fmt.Errorf("save: %w", err)
		}

	case "exit", "quit":
		return errShellExit

	case "help":
		fmt.Fprint(w, shellHelp)

	default:
		return fmt.Errorf("%s: unknown command", name)
	}

	return nil
}

func splitLast(path string) (dir, name string) {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}
