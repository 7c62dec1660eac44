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
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/navwar/gomirror/pkg/fs"
)

// State is the state of a Loop.
type State int

const (
	Initializing State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

type LoopInput struct {
	SourceFileSystem  fs.FileSystem
	SourceRoot        string
	ReplicaFileSystem fs.FileSystem
	ReplicaRoot       string
	Interval          time.Duration
	Exclude           *Exclude
	Logger            fs.Logger
	Clock             clockwork.Clock
	Debug             bool
}

// Loop runs a reconciliation cycle every interval until its context is cancelled.
// The baseline is seeded from the replica tree once, then replaced by the source snapshot after every successful cycle.
type Loop struct {
	clock       clockwork.Clock
	interval    time.Duration
	sourceRoot  string
	replicaRoot string
	source      *Snapshotter
	replica     *Snapshotter
	reconciler  *Reconciler
	logger      fs.Logger
	debug       bool
	state       State
	baseline    *Snapshot
}

func (l *Loop) State() State {
	return l.state
}

// Baseline returns what the replica is believed to contain, or nil before initialization.
func (l *Loop) Baseline() *Snapshot {
	return l.baseline
}

func (l *Loop) initialize(ctx context.Context) error {
	baseline, err := l.replica.Snapshot(ctx)
	if err != nil {
		_ = l.logger.Error("Error snapshotting replica", map[string]interface{}{
			"replica": l.replicaRoot,
			"err":     err.Error(),
		})
		return err
	}
	l.baseline = baseline
	l.state = Running
	if l.debug {
		_ = l.logger.Log("Initialized baseline from replica", map[string]interface{}{
			"replica": l.replicaRoot,
			"folders": baseline.Folders.Cardinality(),
			"files":   baseline.Files.Cardinality(),
		})
	}
	return nil
}

func (l *Loop) cycle(ctx context.Context) error {
	start := l.clock.Now()

	source, err := l.source.Snapshot(ctx)
	if err != nil {
		_ = l.logger.Error("Error snapshotting source", map[string]interface{}{
			"source": l.sourceRoot,
			"err":    err.Error(),
		})
		return err
	}

	next, output, err := l.reconciler.Reconcile(ctx, source, l.baseline)
	l.baseline = next

	if err != nil {
		_ = l.logger.Error("Cycle finished with errors, baseline was merged", map[string]interface{}{
			"errors": len(output.Errors),
		})
	}

	if l.debug {
		_ = l.logger.Log("Cycle finished", map[string]interface{}{
			"foldersCopied":  output.FoldersCopied,
			"filesCopied":    output.FilesCopied,
			"foldersDeleted": output.FoldersDeleted,
			"filesDeleted":   output.FilesDeleted,
			"bytes":          output.BytesWritten,
			"errors":         len(output.Errors),
			"duration":       l.clock.Since(start).String(),
		})
	}

	return err
}

// Step runs one iteration of the loop: initialization if the baseline is not known yet, followed by one cycle.
func (l *Loop) Step(ctx context.Context) error {
	if l.state == Stopped {
		return errors.New("loop is stopped")
	}
	if l.state == Initializing {
		if err := l.initialize(ctx); err != nil {
			return err
		}
	}
	return l.cycle(ctx)
}

func (l *Loop) start() {
	_ = l.logger.Log("Synchronizer is running", map[string]interface{}{
		"source":   l.sourceRoot,
		"replica":  l.replicaRoot,
		"interval": l.interval.String(),
	})
}

func (l *Loop) stop() {
	l.state = Stopped
	_ = l.logger.Log("Synchronizer is stopped", map[string]interface{}{
		"source":  l.sourceRoot,
		"replica": l.replicaRoot,
	})
}

// Run steps the loop every interval until ctx is cancelled.
// Cancellation interrupts the sleep between cycles but never an in-progress cycle.
// Errors of a cycle are logged and retried on the next interval.
func (l *Loop) Run(ctx context.Context) error {
	l.start()
	defer l.stop()
	for {
		if ctx.Err() != nil {
			return nil
		}
		_ = l.Step(context.WithoutCancel(ctx))
		select {
		case <-ctx.Done():
			return nil
		case <-l.clock.After(l.interval):
		}
	}
}

// RunOnce runs a single iteration and returns its error.
func (l *Loop) RunOnce(ctx context.Context) error {
	l.start()
	defer l.stop()
	return l.Step(ctx)
}

func NewLoop(input *LoopInput) (*Loop, error) {
	if input.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	clock := input.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock:       clock,
		interval:    input.Interval,
		sourceRoot:  input.SourceRoot,
		replicaRoot: input.ReplicaRoot,
		source: NewSnapshotter(&SnapshotterInput{
			FileSystem: input.SourceFileSystem,
			Root:       input.SourceRoot,
			Exclude:    input.Exclude,
			Logger:     input.Logger,
		}),
		replica: NewSnapshotter(&SnapshotterInput{
			FileSystem:    input.ReplicaFileSystem,
			Root:          input.ReplicaRoot,
			CanonicalRoot: input.SourceRoot,
			Exclude:       input.Exclude,
			Logger:        input.Logger,
		}),
		reconciler: NewReconciler(&ReconcilerInput{
			SourceFileSystem:  input.SourceFileSystem,
			SourceRoot:        input.SourceRoot,
			ReplicaFileSystem: input.ReplicaFileSystem,
			ReplicaRoot:       input.ReplicaRoot,
			Exclude:           input.Exclude,
			Logger:            input.Logger,
			Debug:             input.Debug,
		}),
		logger: input.Logger,
		debug:  input.Debug,
		state:  Initializing,
	}, nil
}
