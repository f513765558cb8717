// Command cadence wires every component of the recognition engine together
// behind a small set of subcommands, grounded on the teacher's
// main/commands.go + main/main.go argument-dispatch style.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/resonantlabs/cadence/internal/apitypes"
	"github.com/resonantlabs/cadence/internal/audio"
	"github.com/resonantlabs/cadence/internal/blobstore"
	"github.com/resonantlabs/cadence/internal/catalog"
	"github.com/resonantlabs/cadence/internal/config"
	"github.com/resonantlabs/cadence/internal/ingest"
	"github.com/resonantlabs/cadence/internal/logging"
	"github.com/resonantlabs/cadence/internal/match"
	"github.com/resonantlabs/cadence/internal/mic"
	"github.com/resonantlabs/cadence/internal/recognize"
	"github.com/resonantlabs/cadence/internal/similarity"
	"github.com/resonantlabs/cadence/internal/store"
	"github.com/resonantlabs/cadence/internal/task"
)

// recognizeTaskName is the Celery task name recognize_audio_task carried in
// the original implementation's worker/tasks.py; the Redis-backed queue
// dispatches on this name so a "cadence worker" process and a "cadence
// recognize-async --redis" submitter agree on what to run without sharing a
// Go closure across the process boundary.
const recognizeTaskName = "recognize_audio_task"

// recognizeTaskArgs is the {task_name, args} payload's args field for
// recognizeTaskName (SPEC_FULL.md §6).
type recognizeTaskArgs struct {
	Path string `json:"path"`
}

func main() {
	cfg, err := config.Load(os.Getenv("CADENCE_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "cadence: loading config:", err)
		os.Exit(1)
	}
	logger := logging.New(os.Getenv("CADENCE_ENV") == "production", slog.LevelInfo)
	logging.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		return
	}

	ctx := context.Background()
	fpStore, featStore, lookup, closeStores := openStores(ctx, cfg, logger)
	defer closeStores()

	engine := similarity.New()
	if err := engine.Reload(ctx, featStore); err != nil {
		logger.Warn("failed to prime similarity snapshot", "error", err)
	}

	loader := audio.NewLoader(cfg.SR)
	matcher := match.New(fpStore, cfg.MinVotes, 5)
	blobs := blobstore.NewLocalDisk(".")
	orchestrator := recognize.New(cfg, matcher, engine, lookup, blobs, loader)
	pipeline := ingest.New(cfg, fpStore, featStore, engine)

	switch os.Args[1] {
	case "ingest":
		cmdIngest(ctx, pipeline, cfg, logger)
	case "recognize":
		cmdRecognize(ctx, orchestrator, logger)
	case "recognize-async":
		cmdRecognizeAsync(ctx, orchestrator, cfg, logger)
	case "worker":
		cmdWorker(ctx, orchestrator, cfg, logger)
	case "similar":
		cmdSimilar(engine, logger)
	case "record":
		cmdRecord(ctx, orchestrator, cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "cadence: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  cadence ingest <track_id> <path>      decode, fingerprint, and extract features for a track")
	fmt.Println("  cadence recognize <path>              recognize a clip against the index")
	fmt.Println("  cadence similar <track_id> <n>         list the n most similar tracks")
	fmt.Println("  cadence record <duration_sec>          capture from the microphone and recognize")
	fmt.Println("  cadence recognize-async <path> [--redis]  submit a recognition job (in-memory by default, Redis broker with --redis) and poll it")
	fmt.Println("  cadence worker                          run Redis-backed recognition workers (pair with recognize-async --redis)")
}

func cmdIngest(ctx context.Context, pipeline *ingest.Pipeline, cfg config.Config, logger *slog.Logger) {
	if len(os.Args) < 4 {
		fmt.Println("Usage: cadence ingest <track_id> <path>")
		os.Exit(1)
	}
	trackID, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cadence: invalid track_id:", err)
		os.Exit(1)
	}
	w, err := audio.Load(os.Args[3], cfg.SR)
	if err != nil {
		logger.Error("ingest: decode failed", "path", os.Args[3], "error", err)
		os.Exit(1)
	}
	if err := pipeline.Track(ctx, trackID, w.Samples, w.SampleRate); err != nil {
		logger.Error("ingest: pipeline failed", "track_id", trackID, "error", err)
		os.Exit(1)
	}
	fmt.Printf("ingested track %d from %s\n", trackID, os.Args[3])
}

func cmdRecognize(ctx context.Context, o *recognize.Orchestrator, logger *slog.Logger) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: cadence recognize <path>")
		os.Exit(1)
	}
	result := o.Recognize(ctx, os.Args[2])
	printResult(result)
}

func cmdSimilar(engine *similarity.Engine, logger *slog.Logger) {
	if len(os.Args) < 4 {
		fmt.Println("Usage: cadence similar <track_id> <n>")
		os.Exit(1)
	}
	trackID, err1 := strconv.ParseUint(os.Args[2], 10, 64)
	n, err2 := strconv.Atoi(os.Args[3])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(os.Stderr, "cadence: invalid track_id or n")
		os.Exit(1)
	}
	for _, r := range engine.TopSimilar(trackID, n) {
		fmt.Printf("%d\t%.4f\n", r.TrackID, r.Similarity)
	}
}

func cmdRecord(ctx context.Context, o *recognize.Orchestrator, cfg config.Config, logger *slog.Logger) {
	seconds := 5
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil {
			seconds = n
		}
	}

	samples, sr, err := mic.Capture(time.Duration(seconds)*time.Second, cfg.Hop)
	if err != nil {
		logger.Error("record: capture failed", "error", err)
		os.Exit(1)
	}

	path := fmt.Sprintf("cadence_recording_%d.wav", time.Now().Unix())
	if err := audio.WriteWAV(path, samples, sr); err != nil {
		logger.Error("record: writing captured wav failed", "error", err)
		os.Exit(1)
	}

	result := o.Recognize(ctx, path)
	printResult(result)
}

// cmdRecognizeAsync submits the same recognition the "recognize" command
// runs synchronously, then polls until a terminal state, the way an HTTP
// handler would poll on behalf of a client holding a task_id. By default it
// runs against the in-process Dispatcher; with --redis it submits through
// the RedisQueue broker instead, expecting a separate "cadence worker"
// process (pointed at the same REDIS_ADDR) to actually run the job.
func cmdRecognizeAsync(ctx context.Context, o *recognize.Orchestrator, cfg config.Config, logger *slog.Logger) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: cadence recognize-async <path> [--redis]")
		os.Exit(1)
	}
	path := os.Args[2]
	useRedis := len(os.Args) >= 4 && os.Args[3] == "--redis"

	resultTTL := time.Duration(cfg.ResultTTLSec) * time.Second

	var taskID uuid.UUID
	var err error
	var poll func(context.Context, uuid.UUID) (task.Record, error)

	if useRedis {
		q := task.NewRedisQueue(cfg.RedisAddr, resultTTL)
		taskID, err = q.Submit(ctx, recognizeTaskName, recognizeTaskArgs{Path: path})
		poll = q.Poll
	} else {
		dispatcher := task.NewDispatcher(task.Options{
			JobTimeout: time.Duration(cfg.TaskTimeoutSec) * time.Second,
			ResultTTL:  resultTTL,
		})
		defer dispatcher.Close()
		taskID, err = dispatcher.Submit(ctx, func(ctx context.Context) (apitypes.RecognitionResult, error) {
			return o.Recognize(ctx, path), nil
		})
		poll = dispatcher.Poll
	}
	if err != nil {
		logger.Error("recognize-async: submit failed", "error", err)
		os.Exit(1)
	}

	for {
		rec, err := poll(ctx, taskID)
		if err != nil {
			logger.Error("recognize-async: poll failed", "error", err)
			os.Exit(1)
		}
		if rec.State == task.Success || rec.State == task.Failure {
			printResult(rec)
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// cmdWorker runs the production TaskQueue wire: it registers the
// recognition handler under recognizeTaskName and blocks running
// single-tenant, late-ack Redis workers (spec.md §4.I, §5) until
// interrupted. Pair with "cadence recognize-async <path> --redis" running
// against the same REDIS_ADDR.
func cmdWorker(ctx context.Context, o *recognize.Orchestrator, cfg config.Config, logger *slog.Logger) {
	workers := runtime.GOMAXPROCS(0)
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			workers = n
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := task.NewRedisQueue(cfg.RedisAddr, time.Duration(cfg.ResultTTLSec)*time.Second)
	q.Register(recognizeTaskName, func(ctx context.Context, raw json.RawMessage) (apitypes.RecognitionResult, error) {
		var args recognizeTaskArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return apitypes.RecognitionResult{}, err
		}
		return o.Recognize(ctx, args.Path), nil
	})

	logger.Info("worker: listening", "redis_addr", cfg.RedisAddr, "workers", workers)
	jobTimeout := time.Duration(cfg.TaskTimeoutSec) * time.Second
	if err := q.RunWorkers(ctx, workers, jobTimeout); err != nil {
		logger.Error("worker: stopped", "error", err)
		os.Exit(1)
	}
}

func printResult(result any) {
	fmt.Printf("%+v\n", result)
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.FingerprintStore, store.FeatureStore, catalog.Lookup, func()) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, falling back to in-memory stores")
		return store.NewMemoryFingerprintStore(), store.NewMemoryFeatureStore(), catalog.NewMemoryLookup(), func() {}
	}

	fpStore, err := store.NewPostgresFingerprintStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connecting fingerprint store", "error", err)
		os.Exit(1)
	}
	featStore, err := store.NewPostgresFeatureStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("connecting feature store", "error", err)
		os.Exit(1)
	}
	lookup, err := catalog.NewPostgresLookup(cfg.DatabaseURL)
	if err != nil {
		logger.Error("connecting catalog", "error", err)
		os.Exit(1)
	}

	return fpStore, featStore, lookup, func() {
		fpStore.Close()
		_ = lookup.Close()
	}
}

