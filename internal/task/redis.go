package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/resonantlabs/cadence/internal/apitypes"
	"github.com/resonantlabs/cadence/internal/xerr"
)

// Handler runs one named task's args and produces a result. Handlers are
// registered by name because a Redis-backed broker cannot carry a Go
// closure across the process boundary the way Dispatcher's in-memory Job
// can — this mirrors the original implementation's Celery task registry
// (`worker/tasks.py`, `@app.task(name=...)`).
type Handler func(ctx context.Context, args json.RawMessage) (apitypes.RecognitionResult, error)

// message is the broker envelope: `{task_id, task_name, args}` per SPEC_FULL.md §6.
type message struct {
	TaskID   string          `json:"task_id"`
	TaskName string          `json:"task_name"`
	Args     json.RawMessage `json:"args"`
}

// resultDoc is the JSON stored in the result backend, keyed by task_id.
type resultDoc struct {
	State  State                        `json:"state"`
	Result *apitypes.RecognitionResult  `json:"result,omitempty"`
	Error  string                       `json:"error,omitempty"`
}

// RedisQueue is the production TaskQueue wire: a Redis list as the broker
// (BRPOP-style) and SETEX-backed keys as the result backend, mirroring the
// Celery-over-Redis configuration read out of the original
// implementation's worker/tasks.py (task_acks_late, worker_prefetch_multiplier=1,
// result_expires matching ResultTTL).
type RedisQueue struct {
	client     *redis.Client
	brokerKey  string
	resultTTL  time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRedisQueue(addr string, resultTTL time.Duration) *RedisQueue {
	return &RedisQueue{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		brokerKey: "cadence:tasks",
		resultTTL: resultTTL,
		handlers:  make(map[string]Handler),
	}
}

// Register binds a task name to the handler a worker runs when it pops a
// message with that name. Must be called before RunWorkers.
func (q *RedisQueue) Register(taskName string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[taskName] = h
}

// Submit enqueues {task_name, args} and seeds the result backend with a
// PENDING record, matching Dispatcher's own transition on submit.
func (q *RedisQueue) Submit(ctx context.Context, taskName string, args any) (uuid.UUID, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return uuid.Nil, fmt.Errorf("task: marshaling args for %q: %w", taskName, err)
	}

	id := uuid.New()
	msg := message{TaskID: id.String(), TaskName: taskName, Args: raw}
	payload, err := json.Marshal(msg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("task: marshaling message: %w", err)
	}

	if err := q.setResult(ctx, id, resultDoc{State: Pending}); err != nil {
		return uuid.Nil, err
	}
	if err := q.client.LPush(ctx, q.brokerKey, payload).Err(); err != nil {
		return uuid.Nil, xerr.New(xerr.KindStoreUnavailable, err)
	}
	return id, nil
}

func (q *RedisQueue) Poll(ctx context.Context, taskID uuid.UUID) (Record, error) {
	data, err := q.client.Get(ctx, q.resultKey(taskID)).Bytes()
	if err == redis.Nil {
		return Record{}, ErrUnknownTask
	}
	if err != nil {
		return Record{}, xerr.New(xerr.KindStoreUnavailable, err)
	}

	var doc resultDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Record{}, fmt.Errorf("task: decoding result for %s: %w", taskID, err)
	}
	return Record{TaskID: taskID, State: doc.State, Result: doc.Result, Error: doc.Error}, nil
}

// Cancel sets a best-effort marker that a worker checks once, after the
// handler returns: if the marker is present then, the result is written as
// FAILURE with CancellationError. A job still queued is not skipped (it runs,
// then reports the cancellation), and a Cancel that arrives after that check
// leaves the written result as it is.
func (q *RedisQueue) Cancel(ctx context.Context, taskID uuid.UUID) error {
	if err := q.client.Set(ctx, q.cancelKey(taskID), "1", q.resultTTL).Err(); err != nil {
		return xerr.New(xerr.KindStoreUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) setResult(ctx context.Context, taskID uuid.UUID, doc resultDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("task: marshaling result for %s: %w", taskID, err)
	}
	if err := q.client.Set(ctx, q.resultKey(taskID), data, q.resultTTL).Err(); err != nil {
		return xerr.New(xerr.KindStoreUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) isCancelled(ctx context.Context, taskID uuid.UUID) bool {
	n, _ := q.client.Exists(ctx, q.cancelKey(taskID)).Result()
	return n > 0
}

func (q *RedisQueue) resultKey(taskID uuid.UUID) string { return "cadence:result:" + taskID.String() }
func (q *RedisQueue) cancelKey(taskID uuid.UUID) string { return "cadence:cancel:" + taskID.String() }

// RunWorkers starts n single-tenant workers (prefetch=1: each blocks on
// BRPOP for one message, fully processes it, acks late by writing the
// result only after the handler returns) and blocks until ctx is cancelled
// or a worker returns a non-nil error.
func (q *RedisQueue) RunWorkers(ctx context.Context, n int, jobTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error { return q.workerLoop(gctx, jobTimeout) })
	}
	return g.Wait()
}

func (q *RedisQueue) workerLoop(ctx context.Context, jobTimeout time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		res, err := q.client.BRPop(ctx, 5*time.Second, q.brokerKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return xerr.New(xerr.KindStoreUnavailable, err)
		}

		var msg message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			continue // malformed message, drop it rather than crash the worker
		}
		q.process(ctx, msg, jobTimeout)
	}
}

func (q *RedisQueue) process(ctx context.Context, msg message, jobTimeout time.Duration) {
	taskID, err := uuid.Parse(msg.TaskID)
	if err != nil {
		return
	}

	q.mu.RLock()
	handler, ok := q.handlers[msg.TaskName]
	q.mu.RUnlock()
	if !ok {
		_ = q.setResult(ctx, taskID, resultDoc{State: Failure, Error: fmt.Sprintf("task: no handler registered for %q", msg.TaskName)})
		return
	}

	_ = q.setResult(ctx, taskID, resultDoc{State: Running})

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	result, err := handler(jobCtx, msg.Args)
	cancel()

	if q.isCancelled(ctx, taskID) {
		_ = q.setResult(ctx, taskID, resultDoc{State: Failure, Error: CancellationError})
		return
	}

	if err != nil {
		if jobCtx.Err() == context.DeadlineExceeded {
			err = xerr.New(xerr.KindTimeout, err)
		}
		_ = q.setResult(ctx, taskID, resultDoc{State: Failure, Error: err.Error()})
		return
	}
	_ = q.setResult(ctx, taskID, resultDoc{State: Success, Result: &result})
}
