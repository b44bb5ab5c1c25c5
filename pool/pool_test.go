package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCounterEqualsSubmitted(t *testing.T) {
	for _, workers := range []int{1, 2, 8, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			const tasks = 5000
			var counter atomic.Int64
			p := New(Config{Workers: workers, QueueCapacity: 16}, func(n int) {
				counter.Add(int64(n))
			})
			p.Start()
			for i := 0; i < tasks; i++ {
				if err := p.Submit(1); err != nil {
					t.Fatalf("Submit failed: %v", err)
				}
			}
			p.Wait()
			p.Destroy()

			if got := counter.Load(); got != tasks {
				t.Fatalf("expected counter %d, got %d", tasks, got)
			}
			if p.Processed() != tasks {
				t.Fatalf("expected %d processed, got %d", tasks, p.Processed())
			}
		})
	}
}

func TestWaitDestroyNeverDeadlock(t *testing.T) {
	for workers := 1; workers <= 64; workers++ {
		done := make(chan struct{})
		go func(w int) {
			defer close(done)
			p := New(Config{Workers: w, QueueCapacity: 1}, func(struct{}) {})
			p.Start()
			for i := 0; i < w; i++ {
				_ = p.Submit(struct{}{})
			}
			p.Wait()
			p.Destroy()
		}(workers)

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("Wait/Destroy deadlocked with %d workers", workers)
		}
	}
}

func TestNoTaskAfterSentinel(t *testing.T) {
	var mu sync.Mutex
	var afterWait int
	var waited atomic.Bool

	p := New(Config{Workers: 4, QueueCapacity: 8}, func(int) {
		if waited.Load() {
			mu.Lock()
			afterWait++
			mu.Unlock()
		}
	})
	p.Start()
	for i := 0; i < 100; i++ {
		_ = p.Submit(i)
	}
	p.Wait()
	waited.Store(true)

	if err := p.Submit(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after Wait, got %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if afterWait != 0 {
		t.Fatalf("expected no task to run after Wait returned, got %d", afterWait)
	}
}

func TestSubmitBlocksWhileFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	p := New(Config{Workers: 1, QueueCapacity: 1}, func(int) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})
	p.Start()

	_ = p.Submit(1)
	<-started // worker holds task 1
	_ = p.Submit(2)

	submitted := make(chan struct{})
	go func() {
		_ = p.Submit(3)
		close(submitted)
	}()
	select {
	case <-submitted:
		t.Fatal("expected Submit to block on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit did not resume")
	}
	p.Wait()
	if p.Processed() != 3 {
		t.Fatalf("expected 3 processed, got %d", p.Processed())
	}
}

func TestIdempotentLifecycle(t *testing.T) {
	p := New(Config{Workers: 2}, func(int) {})
	p.Start()
	p.Start()
	p.Wait()
	p.Wait()
	p.Destroy()
	p.Destroy()
	if err := p.Submit(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	p := New(Config{}, func(int) {})
	if p.Workers() < 1 {
		t.Fatalf("expected at least one worker, got %d", p.Workers())
	}
	if p.cfg.QueueCapacity != 1024 || p.cfg.Name != "pool" {
		t.Fatalf("unexpected defaults %+v", p.cfg)
	}
	p.Destroy()
}
