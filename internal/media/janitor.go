package media

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
	Policy    RetryPolicy
}

// Janitor asynchronously removes orphaned remote assets. Replacing an avatar
// or thumbnail leaves the old object dangling on the media host; handlers
// enqueue the stale reference here so the request does not wait on the
// cleanup, while video deletion (where the row must not outlive its assets)
// still calls DeleteWithRetry inline.
type Janitor struct {
	host   Host
	policy RetryPolicy
	logger *slog.Logger

	// mu serializes sends on jobs with the close in Shutdown so an Enqueue
	// racing a Shutdown can never send on a closed channel.
	mu     sync.Mutex
	closed bool
	jobs   chan cleanupJob
	wg     sync.WaitGroup
}

type cleanupJob struct {
	ref  string
	kind AssetKind
}

var (
	errJanitorClosed = errors.New("media janitor closed")
	errJanitorFull   = errors.New("media janitor queue full")
)

// NewJanitor starts a background worker pool that deletes orphaned assets.
func NewJanitor(host Host, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Janitor{
		host:   host,
		policy: cfg.Policy.normalized(),
		logger: logger,
		jobs:   make(chan cleanupJob, cfg.QueueSize),
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules best-effort deletion of the referenced asset. It never
// blocks: a full queue or a shut-down janitor is reported as an error for the
// caller to log.
func (j *Janitor) Enqueue(ctx context.Context, ref string, kind AssetKind) error {
	if ref == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return errJanitorClosed
	}

	select {
	case j.jobs <- cleanupJob{ref: ref, kind: kind}:
		return nil
	default:
		return errJanitorFull
	}
}

// Shutdown closes the queue and waits for the workers to finish every job
// already accepted. If ctx expires first the remaining jobs are abandoned and
// ctx's error is returned.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.jobs)
	}
	j.mu.Unlock()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	for job := range j.jobs {
		if !DeleteWithRetry(context.Background(), j.host, job.ref, job.kind, j.policy, j.logger) {
			j.logger.Error("orphaned asset cleanup exhausted retries", "ref", job.ref, "kind", string(job.kind))
		}
	}
}
