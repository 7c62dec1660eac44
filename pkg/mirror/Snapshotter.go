// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package mirror

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/navwar/gomirror/pkg/fs"
)

type SnapshotterInput struct {
	FileSystem fs.FileSystem
	// Root is the root of the tree that is walked.
	Root string
	// CanonicalRoot is the root of the namespace names are reported in.
	// Defaults to Root.
	CanonicalRoot string
	Exclude       *Exclude
	// Logger reports skipped symbolic links, once per link.
	Logger fs.Logger
}

// Snapshotter walks a tree and reports its folders and files.
type Snapshotter struct {
	fileSystem    fs.FileSystem
	root          string
	canonicalRoot string
	exclude       *Exclude
	logger        fs.Logger
	skipped       mapset.Set[string]
}

func (s *Snapshotter) Root() string {
	return s.root
}

// Snapshot walks every directory under the root.
// Any failure to read the tree is returned as a *WalkError, and no partial snapshot is returned.
func (s *Snapshotter) Snapshot(ctx context.Context) (*Snapshot, error) {
	fi, err := s.fileSystem.Stat(ctx, s.root)
	if err != nil {
		return nil, &WalkError{Root: s.root, Err: err}
	}
	if !fi.IsDir() {
		return nil, &WalkError{Root: s.root, Err: fmt.Errorf("%q is not a directory", s.root)}
	}
	snapshot := NewSnapshot()
	if err := s.walk(ctx, s.root, snapshot); err != nil {
		return nil, &WalkError{Root: s.root, Err: err}
	}
	return snapshot, nil
}

func (s *Snapshotter) walk(ctx context.Context, directory string, snapshot *Snapshot) error {
	directoryEntries, err := s.fileSystem.ReadDir(ctx, directory)
	if err != nil {
		return fmt.Errorf("error reading directory %q: %w", directory, err)
	}
	for _, directoryEntry := range directoryEntries {
		name := s.fileSystem.Join(directory, directoryEntry.Name())
		relativePath, err := Relative(name, s.root)
		if err != nil {
			return err
		}
		if s.exclude.Match(relativePath) {
			continue
		}
		skip, reason, err := fs.SkipLink(ctx, s.fileSystem, name, directoryEntry)
		if err != nil {
			return err
		}
		if skip {
			s.skip(name, reason)
			continue
		}
		canonicalName, err := Map(name, s.root, s.canonicalRoot)
		if err != nil {
			return err
		}
		if directoryEntry.IsDir() {
			snapshot.Add(Folder, canonicalName)
			if err := s.walk(ctx, name, snapshot); err != nil {
				return err
			}
			continue
		}
		snapshot.Add(File, canonicalName)
	}
	return nil
}

// skip logs a symbolic link left out of the snapshot the first time it is found.
func (s *Snapshotter) skip(name string, reason string) {
	if s.skipped.Contains(name) {
		return
	}
	s.skipped.Add(name)
	if s.logger != nil {
		_ = s.logger.Log("Symbolic link was skipped", map[string]interface{}{
			"path":   name,
			"reason": reason,
		})
	}
}

func NewSnapshotter(input *SnapshotterInput) *Snapshotter {
	canonicalRoot := input.CanonicalRoot
	if len(canonicalRoot) == 0 {
		canonicalRoot = input.Root
	}
	return &Snapshotter{
		fileSystem:    input.FileSystem,
		root:          input.Root,
		canonicalRoot: canonicalRoot,
		exclude:       input.Exclude,
		logger:        input.Logger,
		skipped:       mapset.NewThreadUnsafeSet[string](),
	}
}
