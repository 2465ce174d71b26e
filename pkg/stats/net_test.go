package stats

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWaitSpacesConcurrentDownloads(t *testing.T) {
	delay := DownloadDelay
	DownloadDelay = 50 * time.Millisecond
	defer func() {
		DownloadDelay = delay
		throttle.Lock()
		throttle.next = time.Time{}
		throttle.Unlock()
	}()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := wait(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// Three slots 50ms apart: the last one starts no earlier than 100ms in.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("concurrent downloads were not spaced, all started within %v", elapsed)
	}
}

func TestWaitCanceled(t *testing.T) {
	delay := DownloadDelay
	DownloadDelay = time.Hour
	defer func() {
		DownloadDelay = delay
		throttle.Lock()
		throttle.next = time.Time{}
		throttle.Unlock()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The first slot is immediate, the second one waits an hour unless canceled.
	_ = wait(ctx)
	if err := wait(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
