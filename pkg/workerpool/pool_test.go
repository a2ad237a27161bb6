package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_SubmitReturnsTaskError(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 4}, nil)
	defer shutdown(t, p)

	wantErr := errors.New("boom")
	err := p.Submit(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Submit() = %v, want %v", err, wantErr)
	}

	if err := p.Submit(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("Submit() = %v, want nil", err)
	}
}

func TestPool_ConcurrencyBound(t *testing.T) {
	const workers = 3
	p := New(&Config{MaxWorkers: workers, QueueSize: 32}, nil)
	defer shutdown(t, p)

	var running, peak atomic.Int64
	release := make(chan struct{})
	done := make(chan struct{}, 10)

	for i := 0; i < 10; i++ {
		err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			done <- struct{}{}
			return nil
		})
		if err != nil {
			t.Fatalf("SubmitAsync() = %v", err)
		}
	}

	// 等任务被派发后再放行
	time.Sleep(50 * time.Millisecond)
	close(release)
	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("tasks did not finish")
		}
	}

	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency = %d, want <= %d", got, workers)
	}
}

func TestPool_QueueFull(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer shutdown(t, p)

	block := make(chan struct{})
	defer close(block)

	// 持续提交阻塞任务直至执行名额与等待队列全部占满
	var rejected bool
	for i := 0; i < 16; i++ {
		err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
			<-block
			return nil
		})
		if errors.Is(err, ErrPoolBusy) {
			rejected = true
			break
		}
		if err != nil {
			t.Fatalf("SubmitAsync() = %v", err)
		}
	}
	if !rejected {
		t.Error("expected ErrPoolBusy once queue and workers are saturated")
	}
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	p := New(nil, nil)
	shutdown(t, p)

	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() after shutdown = %v, want ErrPoolClosed", err)
	}
}

func TestPool_ShutdownWaitsForTasks(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 4}, nil)

	var finished atomic.Int64
	for i := 0; i < 4; i++ {
		if err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
			time.Sleep(30 * time.Millisecond)
			finished.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("SubmitAsync() = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
	if got := finished.Load(); got != 4 {
		t.Errorf("finished tasks = %d, want 4", got)
	}
}

func shutdown(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
}
