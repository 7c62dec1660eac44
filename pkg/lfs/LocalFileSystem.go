// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package lfs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/navwar/gomirror/pkg/fs"
)

// LocalFileSystem is a file system backed by afero.
// Names are absolute operating system paths.
type LocalFileSystem struct {
	fs   afero.Fs
	root string
}

func (lfs *LocalFileSystem) Chtimes(ctx context.Context, name string, atime time.Time, mtime time.Time) error {
	return lfs.fs.Chtimes(name, atime, mtime)
}

func (lfs *LocalFileSystem) Dir(name string) string {
	return Dir(name)
}

func (lfs *LocalFileSystem) IsNotExist(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}

func (lfs *LocalFileSystem) Join(name ...string) string {
	return filepath.Join(name...)
}

func (lfs *LocalFileSystem) MkdirAll(ctx context.Context, name string, mode os.FileMode) error {
	return lfs.fs.MkdirAll(name, mode)
}

func (lfs *LocalFileSystem) Open(ctx context.Context, name string) (fs.File, error) {
	f, err := lfs.fs.Open(name)
	if err != nil {
		return nil, err
	}
	return NewLocalFile(f), nil
}

func (lfs *LocalFileSystem) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (fs.File, error) {
	f, err := lfs.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return NewLocalFile(f), nil
}

func (lfs *LocalFileSystem) ReadDir(ctx context.Context, name string) ([]fs.DirectoryEntry, error) {
	directoryEntries := []fs.DirectoryEntry{}
	readDirOutput, err := afero.ReadDir(lfs.fs, name)
	if err != nil {
		return nil, err
	}
	for _, fileInfo := range readDirOutput {
		directoryEntries = append(directoryEntries, NewLocalDirectoryEntry(fileInfo))
	}
	return directoryEntries, nil
}

func (lfs *LocalFileSystem) Remove(ctx context.Context, name string) error {
	return lfs.fs.Remove(name)
}

func (lfs *LocalFileSystem) RemoveAll(ctx context.Context, name string) error {
	if name == lfs.root {
		return fmt.Errorf("refusing to remove root of file system %q", name)
	}
	return lfs.fs.RemoveAll(name)
}

func (lfs *LocalFileSystem) Root() string {
	return lfs.root
}

func (lfs *LocalFileSystem) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	fi, err := lfs.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	return NewLocalFileInfo(fi), nil
}

// NewLocalFileSystem returns a file system for the operating system tree at rootPath.
func NewLocalFileSystem(rootPath string) *LocalFileSystem {
	return NewLocalFileSystemWithFs(afero.NewOsFs(), rootPath)
}

// NewReadOnlyLocalSystem returns a file system for the operating system tree at rootPath that rejects every mutation.
func NewReadOnlyLocalSystem(rootPath string) *LocalFileSystem {
	return NewLocalFileSystemWithFs(afero.NewReadOnlyFs(afero.NewOsFs()), rootPath)
}

// NewLocalFileSystemWithFs returns a file system for the tree at rootPath on an arbitrary afero file system.
func NewLocalFileSystemWithFs(afs afero.Fs, rootPath string) *LocalFileSystem {
	return &LocalFileSystem{
		fs:   afs,
		root: filepath.Clean(rootPath),
	}
}
