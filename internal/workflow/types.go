package workflow

import (
	"context"
	"time"
)

// State is a step of a smoke-test run.
type State int

const (
	StateStart State = iota
	StateChecking
	StateGenerating
	StateUploading
	StateCleaningUp
	StateDone
	StateAborted
)

var stateNames = map[State]string{
	StateStart:      "start",
	StateChecking:   "checking",
	StateGenerating: "generating",
	StateUploading:  "uploading",
	StateCleaningUp: "cleaning_up",
	StateDone:       "done",
	StateAborted:    "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Storage is the remote side of the workflow.
type Storage interface {
	Bucket() string
	CheckBucket(ctx context.Context) error
	UploadFile(ctx context.Context, path, key string) (string, error)
}

// Files creates and deletes the local artifact.
type Files interface {
	Generate(path string, sizeKB int) error
	Remove(path string) error
}

// Observer receives the outcome of every finished run.
type Observer interface {
	ObserveRun(ctx context.Context, r Result)
}

// Result describes a finished run.
type Result struct {
	State State
	// FailedAt is the step that failed when State is StateAborted.
	FailedAt State
	Bucket   string
	Path     string
	Key      string
	Bytes    int64
	Duration time.Duration
	Err      error
}

// OK reports whether the run reached StateDone.
func (r Result) OK() bool { return r.State == StateDone }

// Destination is "bucket/key", empty before a key is known.
func (r Result) Destination() string {
	if r.Key == "" {
		return ""
	}
	return r.Bucket + "/" + r.Key
}

// Options tune a run.
type Options struct {
	SizeKB    int
	WorkDir   string
	ObjectKey string
	// NewPath returns the artifact path for a run. Defaults to artifact.NewPath.
	NewPath func(dir string) string
}
