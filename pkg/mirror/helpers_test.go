// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package mirror

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	mutex   sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) record(level string, msg string, fields []map[string]interface{}) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	f := map[string]interface{}{}
	for _, m := range fields {
		for k, v := range m {
			f[k] = v
		}
	}
	r.entries = append(r.entries, logEntry{level: level, msg: msg, fields: f})
	return nil
}

func (r *recordingLogger) Log(msg string, fields ...map[string]interface{}) error {
	return r.record("info", msg, fields)
}

func (r *recordingLogger) Error(msg string, fields ...map[string]interface{}) error {
	return r.record("error", msg, fields)
}

func (r *recordingLogger) Messages() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	messages := []string{}
	for _, e := range r.entries {
		messages = append(messages, e.msg)
	}
	return messages
}

func (r *recordingLogger) Count(level string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	count := 0
	for _, e := range r.entries {
		if e.level == level {
			count++
		}
	}
	return count
}

func (r *recordingLogger) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.entries = nil
}

func writeFiles(t *testing.T, afs afero.Fs, files map[string]string) {
	for name, contents := range files {
		require.NoError(t, afs.MkdirAll(parentOf(name), 0755))
		require.NoError(t, afero.WriteFile(afs, name, []byte(contents), 0644))
	}
}

func parentOf(name string) string {
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return "/"
}

func snapshotOf(folders []string, files []string) *Snapshot {
	s := NewSnapshot()
	for _, f := range folders {
		s.Add(Folder, f)
	}
	for _, f := range files {
		s.Add(File, f)
	}
	return s
}

var errRefused = errors.New("refused")

// refusingFs fails to open the listed names, until they are removed from the set.
type refusingFs struct {
	afero.Fs
	mutex   sync.Mutex
	refused map[string]bool
}

func (r *refusingFs) refuse(name string, refused bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.refused[name] = refused
}

func (r *refusingFs) isRefused(name string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.refused[name]
}

func (r *refusingFs) Open(name string) (afero.File, error) {
	if r.isRefused(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errRefused}
	}
	return r.Fs.Open(name)
}

func (r *refusingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if r.isRefused(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errRefused}
	}
	return r.Fs.OpenFile(name, flag, perm)
}

func newRefusingFs(afs afero.Fs, names ...string) *refusingFs {
	r := &refusingFs{Fs: afs, refused: map[string]bool{}}
	for _, name := range names {
		r.refuse(name, true)
	}
	return r
}
