// Package task abstracts the broker/result-backend pair the Orchestrator
// runs behind: submit a job, poll its state, best-effort cancel it. An
// in-memory Dispatcher backs unit tests and the single-process CLI; a
// Redis-backed wire mirrors the Celery-over-Redis configuration the
// original implementation ran (spec.md §4.I, SPEC_FULL.md §6).
package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/resonantlabs/cadence/internal/apitypes"
)

// State is a task's position in the PENDING → RUNNING → {SUCCESS, FAILURE}
// machine; SUCCESS/FAILURE records are garbage-collected after ResultTTL.
type State string

const (
	Pending State = "PENDING"
	Running State = "RUNNING"
	Success State = "SUCCESS"
	Failure State = "FAILURE"
)

// CancellationError is the sentinel error a cancelled job's result carries;
// a cancelled task is observable as FAILURE with this marker, per spec.md
// §4.I ("observable as FAILURE with a cancellation marker").
const CancellationError = "cancelled"

// Record is one task's externally observable state.
type Record struct {
	TaskID uuid.UUID
	State  State
	Result *apitypes.RecognitionResult
	Error  string
}

// Job is the unit of work a worker runs. It receives a context carrying the
// task's wall-clock timeout and cancellation.
type Job func(ctx context.Context) (apitypes.RecognitionResult, error)

// Queue is the abstract broker + result-backend contract for in-process
// jobs; Dispatcher implements it. RedisQueue submits by task name instead of
// a Job closure, so it does not implement Queue.
type Queue interface {
	Submit(ctx context.Context, job Job) (uuid.UUID, error)
	Poll(ctx context.Context, taskID uuid.UUID) (Record, error)
	Cancel(ctx context.Context, taskID uuid.UUID) error
}

// Options configures a Dispatcher.
type Options struct {
	// Workers bounds in-flight jobs; each worker runs one job at a time
	// (prefetch=1). Zero means GOMAXPROCS.
	Workers int
	// JobTimeout is the wall-clock budget per job (spec.md T_REC).
	JobTimeout time.Duration
	// ResultTTL is how long a SUCCESS/FAILURE record survives before GC.
	ResultTTL time.Duration
}
