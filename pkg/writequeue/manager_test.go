package writequeue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestManager_SerializesSameUser(t *testing.T) {
	m := New(&Config{QueueCapacity: 16, WriteTimeout: 2 * time.Second}, nil)
	defer shutdown(t, m)

	var running, peak, total int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Execute(context.Background(), 1, func() error {
				mu.Lock()
				running++
				if running > peak {
					peak = running
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				running--
				total++
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Execute() = %v", err)
			}
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak concurrent writes for one user = %d, want 1", peak)
	}
	if total != 8 {
		t.Errorf("completed writes = %d, want 8", total)
	}
}

func TestManager_UsersDoNotBlockEachOther(t *testing.T) {
	m := New(nil, nil)
	defer shutdown(t, m)

	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), 1, func() error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	// 用户 1 的写仍占着通道，用户 2 不应受影响
	done := make(chan error, 1)
	go func() {
		done <- m.Execute(context.Background(), 2, func() error { return nil })
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Execute() for other user = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("other user's write was blocked")
	}
	close(hold)
}

func TestManager_PropagatesWriteError(t *testing.T) {
	m := New(nil, nil)
	defer shutdown(t, m)

	wantErr := errors.New("constraint violated")
	err := m.Execute(context.Background(), 1, func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("Execute() = %v, want %v", err, wantErr)
	}
}

func TestManager_WaitTimeout(t *testing.T) {
	m := New(&Config{WriteTimeout: 30 * time.Millisecond}, nil)
	defer shutdown(t, m)

	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), 1, func() error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	err := m.Execute(context.Background(), 1, func() error { return nil })
	if !errors.Is(err, ErrWriteTimeout) {
		t.Errorf("Execute() while lane is held = %v, want ErrWriteTimeout", err)
	}
	close(hold)
}

func TestManager_CapacityLimit(t *testing.T) {
	m := New(&Config{QueueCapacity: 2, WriteTimeout: time.Second}, nil)
	defer shutdown(t, m)

	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), 1, func() error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	// 第二个等待者填满容量，第三个应被拒绝
	go func() {
		_ = m.Execute(context.Background(), 1, func() error { return nil })
	}()
	deadline := time.Now().Add(time.Second)
	for m.Waiting(1) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	err := m.Execute(context.Background(), 1, func() error { return nil })
	if !errors.Is(err, ErrWriteQueueFull) {
		t.Errorf("Execute() over capacity = %v, want ErrWriteQueueFull", err)
	}
	close(hold)
}

func TestManager_RejectsAfterShutdown(t *testing.T) {
	m := New(nil, nil)
	shutdown(t, m)

	err := m.Execute(context.Background(), 1, func() error { return nil })
	if !errors.Is(err, ErrWriteQueueClosed) {
		t.Errorf("Execute() after shutdown = %v, want ErrWriteQueueClosed", err)
	}
}

func shutdown(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
}
