package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/s3check/internal/artifact"
	"github.com/rs/zerolog"
)

// Orchestrator sequences check -> generate -> upload -> cleanup. The first
// failing step aborts the run; later steps are never invoked.
type Orchestrator struct {
	storage  Storage
	files    Files
	observer Observer
	log      zerolog.Logger
	opts     Options
	now      func() time.Time
}

// NewOrchestrator creates a new Orchestrator. observer may be nil.
func NewOrchestrator(storage Storage, files Files, observer Observer, log zerolog.Logger, opts Options) *Orchestrator {
	if opts.NewPath == nil {
		opts.NewPath = artifact.NewPath
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	return &Orchestrator{
		storage:  storage,
		files:    files,
		observer: observer,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Check runs the bucket check alone.
func (o *Orchestrator) Check(ctx context.Context) Result {
	start := o.now()
	r := Result{State: StateChecking, Bucket: o.storage.Bucket()}

	if err := o.storage.CheckBucket(ctx); err != nil {
		return o.finish(ctx, o.abort(r, fmt.Errorf("bucket check failed: %w", err)), start)
	}

	r.State = StateDone
	o.log.Info().Str("bucket", r.Bucket).Msg("bucket check passed")
	return o.finish(ctx, r, start)
}

// Run executes the full smoke test.
func (o *Orchestrator) Run(ctx context.Context) Result {
	start := o.now()
	r := Result{State: StateStart, Bucket: o.storage.Bucket()}

	r.State = StateChecking
	if err := o.storage.CheckBucket(ctx); err != nil {
		return o.finish(ctx, o.abort(r, fmt.Errorf("bucket check failed: %w", err)), start)
	}

	r.State = StateGenerating
	r.Path = o.opts.NewPath(o.opts.WorkDir)
	if err := o.files.Generate(r.Path, o.opts.SizeKB); err != nil {
		o.log.Error().Err(err).Str("path", r.Path).Msg("failed to generate random file")
		return o.finish(ctx, o.abort(r, fmt.Errorf("failed to generate %s: %w", r.Path, err)), start)
	}
	r.Bytes = int64(o.opts.SizeKB) * 1024
	o.log.Info().Str("path", r.Path).Int64("bytes", r.Bytes).Msg("generated random file")

	r.State = StateUploading
	key, err := o.storage.UploadFile(ctx, r.Path, o.opts.ObjectKey)
	r.Key = key
	if err != nil {
		o.log.Warn().Str("path", r.Path).Msg("keeping local file for inspection")
		return o.finish(ctx, o.abort(r, fmt.Errorf("failed to upload %s: %w", r.Path, err)), start)
	}

	r.State = StateCleaningUp
	if err := o.files.Remove(r.Path); err != nil {
		o.log.Error().Err(err).Str("path", r.Path).Msg("failed to remove local file")
		return o.finish(ctx, o.abort(r, fmt.Errorf("failed to remove %s: %w", r.Path, err)), start)
	}
	o.log.Info().Str("path", r.Path).Msg("removed local file")

	r.State = StateDone
	return o.finish(ctx, r, start)
}

func (o *Orchestrator) abort(r Result, err error) Result {
	r.FailedAt = r.State
	r.State = StateAborted
	r.Err = err
	return r
}

func (o *Orchestrator) finish(ctx context.Context, r Result, start time.Time) Result {
	r.Duration = o.now().Sub(start)

	// The cause is logged at error level where it happened.
	if r.State == StateAborted {
		o.log.Warn().
			Str("bucket", r.Bucket).
			Str("failed_at", r.FailedAt.String()).
			Dur("duration", r.Duration).
			Msg("smoke test aborted")
	} else {
		o.log.Info().
			Str("bucket", r.Bucket).
			Str("destination", r.Destination()).
			Dur("duration", r.Duration).
			Msg("smoke test completed")
	}

	if o.observer != nil {
		o.observer.ObserveRun(ctx, r)
	}
	return r
}
