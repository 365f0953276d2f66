package facade

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/buildinspect/buildinspect/internal/report"
)

// Async wraps a Facade so a caller's background task can kick off an
// analysis without blocking its own goroutine, per §2's "non-blocking
// wrapper so external UIs can present progress." Overlapping calls for the
// same archive set are coalesced by singleflight rather than run twice;
// runs for different archive sets take turns, since they share the
// Facade's resolver state.
type Async struct {
	f  *Facade
	sf singleflight.Group
	mu sync.Mutex
}

// NewAsync wraps f for non-blocking use.
func NewAsync(f *Facade) *Async {
	return &Async{f: f}
}

// Handle represents one in-flight or completed asynchronous analysis.
type Handle struct {
	once   sync.Once
	done   chan struct{}
	result *report.Result
	err    error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func (h *Handle) finish(result *report.Result, err error) {
	h.once.Do(func() {
		h.result = result
		h.err = err
		close(h.done)
	})
}

// Wait blocks until the analysis completes or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) (*report.Result, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the analysis has completed.
func (h *Handle) Done() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Analyze starts (or joins, if one is already running for the same archive
// set) an analysis and returns immediately with a Handle.
func (a *Async) Analyze(ctx context.Context, archivePaths []string) *Handle {
	h := newHandle()
	key := archiveKey(archivePaths)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err, _ := a.sf.Do(key, func() (interface{}, error) {
			a.mu.Lock()
			defer a.mu.Unlock()
			return a.f.Analyze(gctx, archivePaths)
		})
		if err != nil {
			h.finish(nil, err)
			return err
		}
		h.finish(v.(*report.Result), nil)
		return nil
	})

	return h
}
