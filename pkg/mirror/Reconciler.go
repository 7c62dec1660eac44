// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package mirror

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/dustin/go-humanize"

	"github.com/navwar/gomirror/pkg/fs"
)

type ReconcilerInput struct {
	SourceFileSystem  fs.FileSystem
	SourceRoot        string
	ReplicaFileSystem fs.FileSystem
	ReplicaRoot       string
	Exclude           *Exclude
	Logger            fs.Logger
	// Debug logs every file written by a folder copy.
	Debug bool
}

// ReconcileOutput counts the mutations made to the replica during one reconciliation.
type ReconcileOutput struct {
	FoldersCopied  int
	FilesCopied    int
	FoldersDeleted int
	FilesDeleted   int
	BytesWritten   int64
	Errors         []error
}

// Mutations returns the number of copies and deletions performed.
func (o *ReconcileOutput) Mutations() int {
	return o.FoldersCopied + o.FilesCopied + o.FoldersDeleted + o.FilesDeleted
}

// Reconciler makes the replica tree match a snapshot of the source tree.
type Reconciler struct {
	sourceFileSystem  fs.FileSystem
	sourceRoot        string
	replicaFileSystem fs.FileSystem
	replicaRoot       string
	exclude           *Exclude
	logger            fs.Logger
	debug             bool
}

func (r *Reconciler) replicaName(name string) (string, error) {
	return Map(name, r.sourceRoot, r.replicaRoot)
}

// Reconcile copies every entry of source that is missing from the replica,
// and deletes every entry of previous that is no longer in source.
// If every operation succeeded, source is returned as the next baseline.
// Otherwise previous merged with source is returned with the joined errors,
// so that the next cycle retries the same deletions without forgetting what this cycle copied.
func (r *Reconciler) Reconcile(ctx context.Context, source *Snapshot, previous *Snapshot) (*Snapshot, *ReconcileOutput, error) {
	output := &ReconcileOutput{
		Errors: []error{},
	}

	// additions
	for _, kind := range []EntryKind{Folder, File} {
		for _, name := range source.Sorted(kind) {
			if err := r.copyEntry(ctx, kind, name, output); err != nil {
				output.Errors = append(output.Errors, err)
			}
		}
	}

	// deletions
	deleted := previous.Difference(source)
	for _, kind := range []EntryKind{Folder, File} {
		for _, name := range deleted.Sorted(kind) {
			if err := r.deleteEntry(ctx, kind, name, output); err != nil {
				output.Errors = append(output.Errors, err)
			}
		}
	}

	if len(output.Errors) > 0 {
		return previous.Merge(source), output, errors.Join(output.Errors...)
	}

	return source, output, nil
}

func (r *Reconciler) fail(op string, kind EntryKind, name string, replicaName string, err error) error {
	e := &FilesystemError{
		Op:      op,
		Kind:    kind,
		Path:    name,
		Replica: replicaName,
		Err:     err,
	}
	_ = r.logger.Error(fmt.Sprintf("Error during %s of %s", op, kind), map[string]interface{}{
		"path":    name,
		"replica": replicaName,
		"err":     err.Error(),
	})
	return e
}

func (r *Reconciler) copyEntry(ctx context.Context, kind EntryKind, name string, output *ReconcileOutput) error {
	replicaName, err := r.replicaName(name)
	if err != nil {
		return r.fail("copy", kind, name, "", err)
	}

	exists, err := fs.Exists(ctx, r.replicaFileSystem, replicaName)
	if err != nil {
		return r.fail("copy", kind, name, replicaName, fmt.Errorf("error stating replica: %w", err))
	}
	if exists {
		return nil
	}

	var copyLogger fs.Logger
	if r.debug {
		copyLogger = r.logger
	}

	switch kind {
	case Folder:
		count, written, err := fs.CopyDirectory(ctx, &fs.CopyDirectoryInput{
			SourceDirectory:       name,
			SourceFileSystem:      r.sourceFileSystem,
			DestinationDirectory:  replicaName,
			DestinationFileSystem: r.replicaFileSystem,
			Exclude:               r.exclude.Under(r.sourceRoot),
			Logger:                copyLogger,
		})
		if err != nil {
			return r.fail("copy", kind, name, replicaName, err)
		}
		output.FoldersCopied++
		output.BytesWritten += written
		_ = r.logger.Log("New folder was detected in source and copied to the replica", map[string]interface{}{
			"name":    path.Base(name),
			"path":    name,
			"replica": replicaName,
			"files":   count,
			"size":    humanize.Bytes(uint64(written)),
		})
	case File:
		written, err := fs.Copy(ctx, &fs.CopyInput{
			SourceName:            name,
			SourceFileSystem:      r.sourceFileSystem,
			DestinationName:       replicaName,
			DestinationFileSystem: r.replicaFileSystem,
			Logger:                copyLogger,
			Parents:               true,
		})
		if err != nil {
			return r.fail("copy", kind, name, replicaName, err)
		}
		output.FilesCopied++
		output.BytesWritten += written
		_ = r.logger.Log("New file was detected in source and copied to the replica", map[string]interface{}{
			"name":    path.Base(name),
			"path":    name,
			"replica": replicaName,
			"size":    humanize.Bytes(uint64(written)),
		})
	}
	return nil
}

func (r *Reconciler) deleteEntry(ctx context.Context, kind EntryKind, name string, output *ReconcileOutput) error {
	replicaName, err := r.replicaName(name)
	if err != nil {
		return r.fail("delete", kind, name, "", err)
	}

	fi, err := r.replicaFileSystem.Stat(ctx, replicaName)
	if err != nil {
		if r.replicaFileSystem.IsNotExist(err) {
			return nil
		}
		return r.fail("delete", kind, name, replicaName, fmt.Errorf("error stating replica: %w", err))
	}
	// the entry was already replaced by one of the other kind
	if fi.IsDir() != (kind == Folder) {
		return nil
	}

	switch kind {
	case Folder:
		if err := r.replicaFileSystem.RemoveAll(ctx, replicaName); err != nil {
			return r.fail("delete", kind, name, replicaName, err)
		}
		output.FoldersDeleted++
		_ = r.logger.Log("Folder was deleted from source and removed from the replica", map[string]interface{}{
			"name":    path.Base(name),
			"path":    name,
			"replica": replicaName,
		})
	case File:
		if err := r.replicaFileSystem.Remove(ctx, replicaName); err != nil {
			return r.fail("delete", kind, name, replicaName, err)
		}
		output.FilesDeleted++
		_ = r.logger.Log("File was deleted from source and removed from the replica", map[string]interface{}{
			"name":    path.Base(name),
			"path":    name,
			"replica": replicaName,
		})
	}
	return nil
}

func NewReconciler(input *ReconcilerInput) *Reconciler {
	return &Reconciler{
		sourceFileSystem:  input.SourceFileSystem,
		sourceRoot:        input.SourceRoot,
		replicaFileSystem: input.ReplicaFileSystem,
		replicaRoot:       input.ReplicaRoot,
		exclude:           input.Exclude,
		logger:            input.Logger,
		debug:             input.Debug,
	}
}
