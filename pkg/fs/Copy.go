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
	"io"
	"os"
	"time"
)

// Copy copies a single file from the source file system to the destination file system.
// The file mode and modification time of the source are preserved where the destination supports it.
// Returns the number of bytes written.
func Copy(ctx context.Context, input *CopyInput) (int64, error) {
	if input.Logger != nil {
		_ = input.Logger.Log("Copying file", map[string]interface{}{
			"src": input.SourceName,
			"dst": input.DestinationName,
		})
	}

	sourceFileInfo, err := input.SourceFileSystem.Stat(ctx, input.SourceName)
	if err != nil {
		return 0, fmt.Errorf("error stating source file at %q: %w", input.SourceName, err)
	}

	if sourceFileInfo.IsDir() {
		return 0, fmt.Errorf("source %q is a directory", input.SourceName)
	}

	// check parent directory and create it if allowed
	parent := input.DestinationFileSystem.Dir(input.DestinationName)
	if _, err := input.DestinationFileSystem.Stat(ctx, parent); err != nil {
		if input.DestinationFileSystem.IsNotExist(err) {
			if !input.Parents {
				return 0, fmt.Errorf(
					"parent directory for destination %q does not exist and parents parameter is false",
					input.DestinationName,
				)
			}
			err := input.DestinationFileSystem.MkdirAll(ctx, parent, 0755)
			if err != nil {
				return 0, fmt.Errorf("error creating parent directories for %q: %w", input.DestinationName, err)
			}
		} else {
			return 0, fmt.Errorf("error stating destination parent %q: %w", parent, err)
		}
	}

	// open source file
	sourceFile, err := input.SourceFileSystem.Open(ctx, input.SourceName)
	if err != nil {
		return 0, fmt.Errorf("error opening source file at %q: %w", input.SourceName, err)
	}

	perm := sourceFileInfo.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}

	// open destination file
	destinationFile, err := input.DestinationFileSystem.OpenFile(ctx, input.DestinationName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		_ = sourceFile.Close() // silently close source file
		return 0, fmt.Errorf("error creating destination file at %q: %w", input.DestinationName, err)
	}

	// removeDestination deletes a partially written destination and returns err.
	removeDestination := func(err error) error {
		if removeErr := input.DestinationFileSystem.Remove(ctx, input.DestinationName); removeErr != nil && !input.DestinationFileSystem.IsNotExist(removeErr) {
			return fmt.Errorf("%w (error removing partial destination %q: %v)", err, input.DestinationName, removeErr)
		}
		return err
	}

	// copy bytes from source to destination
	written, err := io.Copy(destinationFile, sourceFile)
	if err != nil {
		_ = sourceFile.Close()      // silently close source file
		_ = destinationFile.Close() // silently close destination file
		return 0, removeDestination(fmt.Errorf("error copying from %q to %q: %w", input.SourceName, input.DestinationName, err))
	}

	err = sourceFile.Close()
	if err != nil {
		_ = destinationFile.Close() // silently close destination file
		return 0, removeDestination(fmt.Errorf("error closing source file after copying: %w", err))
	}

	err = destinationFile.Close()
	if err != nil {
		return 0, removeDestination(fmt.Errorf("error closing destination file after copying: %w", err))
	}

	// Preserve Modification time
	err = input.DestinationFileSystem.Chtimes(ctx, input.DestinationName, time.Now(), sourceFileInfo.ModTime())
	if err != nil {
		return 0, fmt.Errorf("error changing timestamps for destination after copying: %w", err)
	}

	if input.Logger != nil {
		_ = input.Logger.Log("Done copying file", map[string]interface{}{
			"src":     input.SourceName,
			"dst":     input.DestinationName,
			"written": written,
		})
	}

	return written, nil
}
