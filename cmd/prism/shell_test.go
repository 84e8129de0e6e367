// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"prism.computer/prism/vfs"
)

func TestExecute(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "fs.json")
	fs := vfs.New(filename)

	var out bytes.Buffer

	for _, line := range []string{
		"",
		"   ",
		"mkdir games",
		"mkdir games/snake",
		"touch games/snake/level.dat",
		"touch readme",
		"save",
	} {
		require.NoError(t, execute(fs, &out, line), line)
	}
	assert.Empty(t, out.String())

	require.NoError(t, execute(fs, &out, "ls"))
	assert.Equal(t, "games/\nreadme\treadme\n", out.String())

	out.Reset()
	require.NoError(t, execute(fs, &out, "ls games/snake"))
	assert.Equal(t, "level$dat\tgames/snake/level$dat\n", out.String())

	require.NoError(t, execute(fs, &out, "rm games/snake"))

	loaded, err := vfs.Load(filename)
	require.NoError(t, err)
	_, err = loaded.Lookup("games/snake/level.dat")
	assert.NoError(t, err)

	assert.ErrorIs(t, execute(fs, &out, "exit"), errShellExit)
	assert.ErrorIs(t, execute(fs, &out, "quit"), errShellExit)
}

func TestExecuteErrors(t *testing.T) {
	fs := vfs.New(filepath.Join(t.TempDir(), "fs.json"))

	var out bytes.Buffer

	assert.ErrorIs(t, execute(fs, &out, "mkdir a/b"), vfs.ErrPathDoesNotExist)
	assert.ErrorIs(t, execute(fs, &out, "ls nothing"), vfs.ErrPathDoesNotExist)
	assert.Error(t, execute(fs, &out, "touch a b"))
	assert.Error(t, execute(fs, &out, "mkdir"))
	assert.Error(t, execute(fs, &out, "ls a b"))
	assert.Error(t, execute(fs, &out, "save now"))
	assert.Error(t, execute(fs, &out, "format"))
	assert.Error(t, execute(fs, &out, "rm"))
	assert.Empty(t, out.String())

	require.NoError(t, execute(fs, &out, "help"))
	assert.Equal(t, shellHelp, out.String())
}

func TestSplitLast(t *testing.T) {
	for in, out := range map[string][2]string{
		"":      {"", ""},
		"a":     {"", "a"},
		"a/":    {"", "a"},
		"a/b":   {"a", "b"},
		"a/b/c": {"a/b", "c"},
		"/a":    {"", "a"},
	} {
		dir, name := splitLast(in)
		assert.Equal(t, out, [2]string{dir, name}, in)
	}
}
