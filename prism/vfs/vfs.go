// Copyright (c) 2020 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vfs implements the persistent folder tree exposed to guest
// programs.  The tree is stored as a single JSON document on the host.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"import.name/lock"
)

var (
	ErrPathAlreadyExists = errors.New("path already exists")
	ErrPathDoesNotExist  = errors.New("path does not exist")
	ErrFileIsNotFolder   = errors.New("file is not a folder")
	ErrFolderIsNotFile   = errors.New("folder is not a file")
	ErrPathInvalid       = errors.New("path is invalid")
)

const separator = "/"

var segmentPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\$]+$`)

// Entry describes a folder or a file.
type Entry struct {
	Name     string
	Folder   bool
	DiskPath string // Files only.
}

type document struct {
	DiskPath string  `json:"disk_path"`
	Root     *folder `json:"root"`
}

type folder struct {
	Children map[string]*item `json:"children"`
}

// item has exactly one non-nil field.
type item struct {
	Folder *folder `json:"Folder,omitempty"`
	File   *file   `json:"File,omitempty"`
}

type file struct {
	DiskPath string `json:"disk_path"`
}

func newFolder() *folder {
	return &folder{Children: make(map[string]*item)}
}

// FS is safe for concurrent use.
type FS struct {
	mu       sync.Mutex
	diskPath string
	root     *folder
}

// New empty tree which will be flushed to diskPath.
func New(diskPath string) *FS {
	return &FS{
		diskPath: diskPath,
		root:     newFolder(),
	}
}

// Load the document from diskPath.  If it doesn't exist, an empty document is
// created and flushed.
func Load(diskPath string) (*FS, error) {
	data, err := os.ReadFile(diskPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		x := New(diskPath)
		if err := x.Flush(); err != nil {
			return nil, err
		}
		return x, nil
	}

	x, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", diskPath, err)
	}
	x.diskPath = diskPath
	return x, nil
}

// Unmarshal a document.  Its stored disk path is retained.
func Unmarshal(data []byte) (*FS, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc.Root == nil {
		doc.Root = newFolder()
	}
	if err := doc.Root.check(); err != nil {
		return nil, err
	}

	return &FS{
		diskPath: doc.DiskPath,
		root:     doc.Root,
	}, nil
}

func (f *folder) check() error {
	if f.Children == nil {
		f.Children = make(map[string]*item)
	}

	for name, it := range f.Children {
		if !segmentPattern.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrPathInvalid, name)
		}

		switch {
		case it == nil || (it.Folder == nil) == (it.File == nil):
			return fmt.Errorf("malformed entry: %q", name)

		case it.Folder != nil:
			if err := it.Folder.check(); err != nil {
				return err
			}
		}
	}

	return nil
}

// DiskPath of the document.
func (x *FS) DiskPath() string {
	return x.diskPath
}

// Marshal the document.
func (x *FS) Marshal() (data []byte, err error) {
	lock.Guard(&x.mu, func() {
		data, err = json.Marshal(&document{
			DiskPath: x.diskPath,
			Root:     x.root,
		})
	})
	return
}

// Flush writes the document atomically.
func (x *FS) Flush() error {
	data, err := x.Marshal()
	if err != nil {
		return err
	}

	dir, base := filepath.Split(x.diskPath)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, base+".*")
	if err != nil {
		return err
	}
	defer func() {
		if f != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(f.Name(), x.diskPath); err != nil {
		return err
	}

	f = nil
	return nil
}

// CreateFolder named name inside the folder at path.
func (x *FS) CreateFolder(path, name string) (err error) {
	lock.Guard(&x.mu, func() {
		err = x.create(cleanPath(path), cleanPath(name), false)
	})
	return
}

// CreateFile named name inside the folder at path.  The file's disk path is
// its full path in the tree.
func (x *FS) CreateFile(path, name string) (err error) {
	lock.Guard(&x.mu, func() {
		err = x.create(cleanPath(path), cleanPath(name), true)
	})
	return
}

// CreateFolderPath creates a folder whose parent already exists.  The last
// segment of full is the name of the new folder.
func (x *FS) CreateFolderPath(full string) (err error) {
	full = cleanPath(full)

	var path, name string
	if i := strings.LastIndex(full, separator); i >= 0 {
		path, name = full[:i], full[i+1:]
	} else {
		name = full
	}

	lock.Guard(&x.mu, func() {
		err = x.create(path, name, false)
	})
	return
}

func (x *FS) create(path, name string, isFile bool) error {
	if !segmentPattern.MatchString(name) {
		return ErrPathInvalid
	}

	parent, err := x.folder(path)
	if err != nil {
		return err
	}

	if _, found := parent.Children[name]; found {
		return ErrPathAlreadyExists
	}

	if isFile {
		fullPath := name
		if path != "" {
			fullPath = path + separator + name
		}
		parent.Children[name] = &item{File: &file{DiskPath: fullPath}}
	} else {
		parent.Children[name] = &item{Folder: newFolder()}
	}

	return nil
}

// Lookup an entry.  The empty path refers to the root folder.
func (x *FS) Lookup(path string) (e Entry, err error) {
	path = cleanPath(path)

	lock.Guard(&x.mu, func() {
		var it *item
		if it, err = x.item(path); err == nil {
			e = entry(baseName(path), it)
		}
	})
	return
}

// ReadDir lists a folder sorted by name.
func (x *FS) ReadDir(path string) (entries []Entry, err error) {
	path = cleanPath(path)

	lock.Guard(&x.mu, func() {
		var f *folder
		if f, err = x.folder(path); err != nil {
			return
		}

		entries = make([]Entry, 0, len(f.Children))
		for name, it := range f.Children {
			entries = append(entries, entry(name, it))
		}
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return
}

// File looks up a file entry.
func (x *FS) File(path string) (e Entry, err error) {
	e, err = x.Lookup(path)
	if err == nil && e.Folder {
		err = ErrFolderIsNotFile
	}
	return
}

// Remove a file, or a folder with its contents.  The root folder cannot be
// removed.
func (x *FS) Remove(path string) (err error) {
	path = cleanPath(path)
	if path == "" {
		return ErrPathInvalid
	}

	parentPath, name := "", path
	if i := strings.LastIndex(path, separator); i >= 0 {
		parentPath, name = path[:i], path[i+1:]
	}

	lock.Guard(&x.mu, func() {
		var parent *folder
		if parent, err = x.folder(parentPath); err != nil {
			return
		}
		if _, found := parent.Children[name]; !found {
			err = ErrPathDoesNotExist
			return
		}
		delete(parent.Children, name)
	})
	return
}

func (x *FS) item(path string) (*item, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	it := &item{Folder: x.root}
	for _, s := range segments {
		if it.Folder == nil {
			return nil, ErrFileIsNotFolder
		}
		next, found := it.Folder.Children[s]
		if !found {
			return nil, ErrPathDoesNotExist
		}
		it = next
	}

	return it, nil
}

func (x *FS) folder(path string) (*folder, error) {
	it, err := x.item(path)
	if err != nil {
		return nil, err
	}
	if it.Folder == nil {
		return nil, ErrFileIsNotFolder
	}
	return it.Folder, nil
}

func entry(name string, it *item) Entry {
	if it.Folder != nil {
		return Entry{Name: name, Folder: true}
	}
	return Entry{Name: name, DiskPath: it.File.DiskPath}
}

// cleanPath replaces dots with dollar signs and removes one leading and one
// trailing separator.
func cleanPath(path string) string {
	path = strings.ReplaceAll(path, ".", "$")
	path = strings.TrimPrefix(path, separator)
	path = strings.TrimSuffix(path, separator)
	return path
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	segments := strings.Split(path, separator)
	for _, s := range segments {
		if !segmentPattern.MatchString(s) {
			return nil, ErrPathInvalid
		}
	}
	return segments, nil
}

func baseName(path string) string {
	return path[strings.LastIndex(path, separator)+1:]
}
