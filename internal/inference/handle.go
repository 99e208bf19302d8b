package inference

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/formlens/formlens/internal/common"
)

// LoadState is the observable state of the model handle.
type LoadState string

const (
	LoadIdle    LoadState = "idle"    // no load attempted yet
	LoadPending LoadState = "pending" // a load is in flight
	LoadDone    LoadState = "done"    // weights are resident
	LoadFailed  LoadState = "failed"  // last attempt failed; retryable
)

// ModelHandle owns the once-per-process model load. Concurrent first
// requests share a single load via singleflight and all observe its result;
// a failed load is not sticky, the next request retries.
type ModelHandle struct {
	loader Loader
	logger *slog.Logger

	sf singleflight.Group

	mu    sync.Mutex
	state LoadState
	err   error
}

func NewModelHandle(loader Loader, logger *slog.Logger) *ModelHandle {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelHandle{loader: loader, logger: logger, state: LoadIdle}
}

// State returns the current load state and, for LoadFailed, the last error.
func (h *ModelHandle) State() (LoadState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.err
}

// EnsureLoaded performs the explicit warm-up. The load itself runs detached
// from any single caller's context so one caller giving up does not abort
// the shared load; each waiter still honors its own ctx.
func (h *ModelHandle) EnsureLoaded(ctx context.Context) error {
	h.mu.Lock()
	if h.state == LoadDone {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	ch := h.sf.DoChan("load", func() (any, error) {
		h.setState(LoadPending, nil)
		h.logger.Info("model.load.start")

		err := h.loader.Load(context.WithoutCancel(ctx))
		if err != nil {
			err = fmt.Errorf("%w: %v", common.ErrModelNotLoaded, err)
			h.setState(LoadFailed, err)
			h.logger.Error("model.load.failed", "error", err)
			return nil, err
		}
		h.setState(LoadDone, nil)
		h.logger.Info("model.load.done")
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", common.ErrModelNotLoaded, ctx.Err())
	case res := <-ch:
		return res.Err
	}
}

func (h *ModelHandle) setState(s LoadState, err error) {
	h.mu.Lock()
	h.state = s
	h.err = err
	h.mu.Unlock()
}
