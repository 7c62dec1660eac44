// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package fs

import (
	"context"
	"fmt"
)

// CopyDirectory recursively copies the source directory and all of its contents to the destination directory.
// Entries for which Exclude returns true are skipped, including the contents of excluded directories.
// Returns the number of files copied and the number of bytes written.
func CopyDirectory(ctx context.Context, input *CopyDirectoryInput) (int, int64, error) {
	sourceFileInfo, err := input.SourceFileSystem.Stat(ctx, input.SourceDirectory)
	if err != nil {
		return 0, 0, fmt.Errorf("error stating source directory %q: %w", input.SourceDirectory, err)
	}

	if !sourceFileInfo.IsDir() {
		return 0, 0, fmt.Errorf("source %q is not a directory", input.SourceDirectory)
	}

	mode := sourceFileInfo.Mode().Perm()
	if mode == 0 {
		mode = 0755
	}

	err = input.DestinationFileSystem.MkdirAll(ctx, input.DestinationDirectory, mode)
	if err != nil {
		return 0, 0, fmt.Errorf("error creating destination directory %q: %w", input.DestinationDirectory, err)
	}

	sourceDirectoryEntries, err := input.SourceFileSystem.ReadDir(ctx, input.SourceDirectory)
	if err != nil {
		return 0, 0, fmt.Errorf("error reading source directory %q: %w", input.SourceDirectory, err)
	}

	count := 0
	written := int64(0)

	for _, sourceDirectoryEntry := range sourceDirectoryEntries {
		sourceName := input.SourceFileSystem.Join(input.SourceDirectory, sourceDirectoryEntry.Name())
		destinationName := input.DestinationFileSystem.Join(input.DestinationDirectory, sourceDirectoryEntry.Name())
		if input.Exclude != nil && input.Exclude(sourceName) {
			continue
		}
		skip, reason, err := SkipLink(ctx, input.SourceFileSystem, sourceName, sourceDirectoryEntry)
		if err != nil {
			return 0, 0, err
		}
		if skip {
			if input.Logger != nil {
				_ = input.Logger.Log("Skipping symbolic link", map[string]interface{}{
					"src":    sourceName,
					"reason": reason,
				})
			}
			continue
		}
		if sourceDirectoryEntry.IsDir() {
			c, w, err := CopyDirectory(ctx, &CopyDirectoryInput{
				SourceDirectory:       sourceName,
				SourceFileSystem:      input.SourceFileSystem,
				DestinationDirectory:  destinationName,
				DestinationFileSystem: input.DestinationFileSystem,
				Exclude:               input.Exclude,
				Logger:                input.Logger,
			})
			if err != nil {
				return 0, 0, err
			}
			count += c
			written += w
			continue
		}
		w, err := Copy(ctx, &CopyInput{
			SourceName:            sourceName,
			SourceFileSystem:      input.SourceFileSystem,
			DestinationName:       destinationName,
			DestinationFileSystem: input.DestinationFileSystem,
			Logger:                input.Logger,
			Parents:               false,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("error copying %q to %q: %w", sourceName, destinationName, err)
		}
		count += 1
		written += w
	}

	// Preserve Modification time once the contents no longer change
	err = input.DestinationFileSystem.Chtimes(ctx, input.DestinationDirectory, sourceFileInfo.ModTime(), sourceFileInfo.ModTime())
	if err != nil {
		return 0, 0, fmt.Errorf("error changing timestamps for destination directory %q: %w", input.DestinationDirectory, err)
	}

	return count, written, nil
}
