package stats

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"
)

// DownloadDelay is the minimum gap between the start of two downloads,
// shared by all goroutines so concurrent fetches do not hammer the source.
var DownloadDelay = 250 * time.Millisecond

var throttle struct {
	sync.Mutex
	next time.Time
}

// wait blocks until the next download slot, DownloadDelay after the
// previously reserved one.
func wait(ctx context.Context) error {
	throttle.Lock()
	now := time.Now()
	at := throttle.next
	if at.Before(now) {
		at = now
	}
	throttle.next = at.Add(DownloadDelay)
	throttle.Unlock()

	select {
	case <-time.After(time.Until(at)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if err := wait(ctx); err != nil {
		return nil, err
	}

	fmt.Printf("Download: '%s'\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download '%s': %s", url, resp.Status)
	}

	return data, nil
}
