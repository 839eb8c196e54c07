package media

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// stallingHost parks every Delete until release is closed, signalling on
// started once a worker has picked up a job.
type stallingHost struct {
	started chan struct{}
	release chan struct{}
}

func (h *stallingHost) Upload(_ context.Context, name string, _ io.Reader) (Asset, error) {
	return Asset{URL: name}, nil
}

func (h *stallingHost) Delete(_ context.Context, _ string, _ AssetKind) error {
	select {
	case h.started <- struct{}{}:
	default:
	}
	<-h.release
	return nil
}

func TestJanitorEnqueueDuringShutdownDoesNotPanic(t *testing.T) {
	host := &fakeHost{}
	policy := RetryPolicy{Attempts: 1, Backoff: time.Millisecond, AttemptTimeout: time.Second}
	janitor := NewJanitor(host, JanitorConfig{QueueSize: 8, Workers: 2, Policy: policy}, nil)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			err := janitor.Enqueue(context.Background(), "avatars/raced.png", KindImage)
			if err != nil && !errors.Is(err, errJanitorClosed) && !errors.Is(err, errJanitorFull) {
				t.Errorf("unexpected enqueue error: %v", err)
				return
			}
		}
	}()

	time.Sleep(5 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	close(stop)
	wg.Wait()
}

func TestJanitorRejectsWhenQueueFull(t *testing.T) {
	host := &stallingHost{started: make(chan struct{}, 1), release: make(chan struct{})}
	policy := RetryPolicy{Attempts: 1, Backoff: time.Millisecond, AttemptTimeout: 10 * time.Second}
	janitor := NewJanitor(host, JanitorConfig{QueueSize: 1, Workers: 1, Policy: policy}, nil)

	if err := janitor.Enqueue(context.Background(), "thumbs/a.jpg", KindImage); err != nil {
		t.Fatalf("enqueue first: %v", err)
	}

	// Wait until the single worker is parked inside Delete so the next
	// enqueue deterministically lands in the buffer.
	select {
	case <-host.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first job")
	}

	if err := janitor.Enqueue(context.Background(), "thumbs/b.jpg", KindImage); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}
	if err := janitor.Enqueue(context.Background(), "thumbs/c.jpg", KindImage); !errors.Is(err, errJanitorFull) {
		t.Fatalf("expected errJanitorFull with a saturated queue, got %v", err)
	}

	close(host.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestJanitorEnqueueHonorsCanceledContext(t *testing.T) {
	host := &fakeHost{}
	janitor := NewJanitor(host, JanitorConfig{Policy: RetryPolicy{Attempts: 1, Backoff: time.Millisecond, AttemptTimeout: time.Second}}, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = janitor.Shutdown(ctx)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := janitor.Enqueue(ctx, "thumbs/a.jpg", KindImage); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
