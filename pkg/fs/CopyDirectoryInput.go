// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

type CopyDirectoryInput struct {
	SourceDirectory       string
	SourceFileSystem      FileSystem
	DestinationDirectory  string
	DestinationFileSystem FileSystem
	// Exclude is called with the source name of every entry and returns true if the entry should be skipped.
	Exclude func(name string) bool
	Logger  Logger
}
