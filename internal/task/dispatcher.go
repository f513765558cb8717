package task

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/resonantlabs/cadence/internal/apitypes"
	"github.com/resonantlabs/cadence/internal/xerr"
)

// ErrUnknownTask is returned by Poll/Cancel for a task_id Dispatcher has
// never seen, or has already garbage-collected past ResultTTL.
var ErrUnknownTask = errors.New("task: unknown task_id")

// Dispatcher is an in-process Queue: an errgroup-bounded worker pool, one
// job per worker in flight at a time (prefetch=1), late ack (state only
// moves to SUCCESS/FAILURE after the job function returns), and a
// background sweep that GCs terminal records past ResultTTL.
type Dispatcher struct {
	group      *errgroup.Group
	ctx        context.Context
	stop       context.CancelFunc
	jobTimeout time.Duration
	resultTTL  time.Duration

	mu        sync.Mutex
	records   map[uuid.UUID]*Record
	cancelled map[uuid.UUID]bool
	finishedAt map[uuid.UUID]time.Time
}

// NewDispatcher starts the Dispatcher and its background GC sweep. Callers
// must call Close to stop both.
func NewDispatcher(opts Options) *Dispatcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(context.Background())

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	d := &Dispatcher{
		group:      group,
		ctx:        gctx,
		stop:       cancel,
		jobTimeout: opts.JobTimeout,
		resultTTL:  opts.ResultTTL,
		records:    make(map[uuid.UUID]*Record),
		cancelled:  make(map[uuid.UUID]bool),
		finishedAt: make(map[uuid.UUID]time.Time),
	}
	go d.gcLoop()
	return d
}

// Close cancels the context every job runs under and stops the background
// GC sweep. It does not wait for in-flight jobs, and it does not stop Submit:
// a job submitted after Close still runs, under the cancelled context.
func (d *Dispatcher) Close() {
	d.stop()
}

func (d *Dispatcher) Submit(ctx context.Context, job Job) (uuid.UUID, error) {
	id := uuid.New()

	d.mu.Lock()
	d.records[id] = &Record{TaskID: id, State: Pending}
	d.mu.Unlock()

	d.group.Go(func() error {
		d.run(id, job)
		return nil // a job's own failure is recorded, not propagated to errgroup
	})

	return id, nil
}

func (d *Dispatcher) run(id uuid.UUID, job Job) {
	d.mu.Lock()
	if d.cancelled[id] {
		d.finishLocked(id, Failure, nil, CancellationError)
		delete(d.cancelled, id)
		d.mu.Unlock()
		return
	}
	d.records[id].State = Running
	d.mu.Unlock()

	var jobCtx context.Context
	var cancel context.CancelFunc
	if d.jobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(d.ctx, d.jobTimeout)
	} else {
		jobCtx, cancel = context.WithCancel(d.ctx)
	}
	defer cancel()

	result, err := job(jobCtx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancelled[id] {
		d.finishLocked(id, Failure, nil, CancellationError)
		delete(d.cancelled, id)
		return
	}

	if err != nil {
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			err = xerr.New(xerr.KindTimeout, fmt.Errorf("task %s exceeded its job timeout: %w", id, err))
		}
		d.finishLocked(id, Failure, nil, err.Error())
		return
	}
	d.finishLocked(id, Success, &result, "")
}

// finishLocked must be called with d.mu held.
func (d *Dispatcher) finishLocked(id uuid.UUID, state State, result *apitypes.RecognitionResult, errMsg string) {
	d.records[id].State = state
	d.records[id].Result = result
	d.records[id].Error = errMsg
	d.finishedAt[id] = time.Now()
}

func (d *Dispatcher) Poll(ctx context.Context, taskID uuid.UUID) (Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[taskID]
	if !ok {
		return Record{}, ErrUnknownTask
	}
	return *rec, nil
}

// Cancel is best-effort: a PENDING job never starts; a RUNNING job completes
// but its result is discarded, surfacing as FAILURE with CancellationError.
func (d *Dispatcher) Cancel(ctx context.Context, taskID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.records[taskID]; !ok {
		return ErrUnknownTask
	}
	d.cancelled[taskID] = true
	return nil
}

func (d *Dispatcher) gcLoop() {
	if d.resultTTL <= 0 {
		return
	}
	ticker := time.NewTicker(d.resultTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.sweep()
		}
	}
}

func (d *Dispatcher) sweep() {
	cutoff := time.Now().Add(-d.resultTTL)
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, at := range d.finishedAt {
		if at.Before(cutoff) {
			delete(d.records, id)
			delete(d.finishedAt, id)
		}
	}
}
