// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package mirror

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// EntryKind is the kind of an entry in a tree.
type EntryKind int

const (
	Folder EntryKind = iota
	File
)

func (k EntryKind) String() string {
	switch k {
	case Folder:
		return "folder"
	case File:
		return "file"
	}
	return "unknown"
}

// Snapshot is the set of folder names and the set of file names of a tree.
// A name is in at most one of the two sets.
type Snapshot struct {
	Folders mapset.Set[string]
	Files   mapset.Set[string]
}

func (s *Snapshot) set(kind EntryKind) mapset.Set[string] {
	if kind == Folder {
		return s.Folders
	}
	return s.Files
}

func (s *Snapshot) other(kind EntryKind) mapset.Set[string] {
	if kind == Folder {
		return s.Files
	}
	return s.Folders
}

// Add inserts name into the set for kind and removes it from the other set.
func (s *Snapshot) Add(kind EntryKind, name string) {
	s.other(kind).Remove(name)
	s.set(kind).Add(name)
}

func (s *Snapshot) Contains(kind EntryKind, name string) bool {
	return s.set(kind).Contains(name)
}

func (s *Snapshot) Len() int {
	return s.Folders.Cardinality() + s.Files.Cardinality()
}

// Difference returns the entries of s that are not in other, kind by kind.
func (s *Snapshot) Difference(other *Snapshot) *Snapshot {
	return &Snapshot{
		Folders: s.Folders.Difference(other.Folders),
		Files:   s.Files.Difference(other.Files),
	}
}

// Merge returns a copy of s with the entries of other whose names are in neither set of s.
// A name present in both snapshots keeps its kind from s.
func (s *Snapshot) Merge(other *Snapshot) *Snapshot {
	merged := s.Clone()
	for _, kind := range []EntryKind{Folder, File} {
		other.set(kind).Each(func(name string) bool {
			if !merged.Folders.Contains(name) && !merged.Files.Contains(name) {
				merged.set(kind).Add(name)
			}
			return false
		})
	}
	return merged
}

func (s *Snapshot) Equal(other *Snapshot) bool {
	return s.Folders.Equal(other.Folders) && s.Files.Equal(other.Files)
}

func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		Folders: s.Folders.Clone(),
		Files:   s.Files.Clone(),
	}
}

// Sorted returns the names of the given kind in lexical order, so parents come before their children.
func (s *Snapshot) Sorted(kind EntryKind) []string {
	names := s.set(kind).ToSlice()
	sort.Strings(names)
	return names
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Folders: mapset.NewThreadUnsafeSet[string](),
		Files:   mapset.NewThreadUnsafeSet[string](),
	}
}
