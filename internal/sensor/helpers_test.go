package sensor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/restsensor/internal/poller"
	"github.com/jpalmerr/restsensor/internal/render"
)

// stubFetcher returns a fixed result, or each of results in turn.
type stubFetcher struct {
	mu      sync.Mutex
	results []poller.FetchResult
	calls   int
}

func body(s string) poller.FetchResult {
	return poller.FetchResult{Body: s, OK: true, StatusCode: 200, FetchedAt: time.Now()}
}

func failed() poller.FetchResult {
	return poller.FetchResult{Err: errors.New("connection refused"), FetchedAt: time.Now()}
}

func (f *stubFetcher) Update(context.Context) poller.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i]
}

func mustCompile(t *testing.T, tmpl, ex string) render.Renderer {
	t.Helper()
	r, err := render.Compile(tmpl, ex)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return r
}

type recorderFunc func(Snapshot)

func (f recorderFunc) ObserveCycle(s Snapshot) { f(s) }
