package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

// SeriesLoader fetches a series' frame buffer from the session API. The
// Store owns retries; implementations perform one attempt.
type SeriesLoader interface {
	LoadSeries(ctx context.Context, sessionID, seriesUID string) ([]dto.Frame, error)
}

// SeriesLoaderFunc adapts a function to the SeriesLoader interface.
type SeriesLoaderFunc func(ctx context.Context, sessionID, seriesUID string) ([]dto.Frame, error)

func (f SeriesLoaderFunc) LoadSeries(ctx context.Context, sessionID, seriesUID string) ([]dto.Frame, error) {
	return f(ctx, sessionID, seriesUID)
}

const (
	loadAttempts    = 3
	loadBackoffBase = 200 * time.Millisecond
)

// Store holds the application state and advances it through dispatched
// actions. Actions apply in dispatch order; fetch side effects live in the
// wrapper methods, not in the reducer.
type Store struct {
	mu        sync.RWMutex
	state     State
	loader    SeriesLoader
	logger    *slog.Logger
	listeners map[int]func(State)
	nextSub   int
}

func NewStore(loader SeriesLoader, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		state:     NewState(),
		loader:    loader,
		logger:    logger.With("component", "viewer_store"),
		listeners: map[int]func(State){},
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies one action and notifies listeners with the new state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SelectSeries switches the shared view to a series: the selection is
// dispatched immediately (clearing the old frame list and resetting the
// index), then the frame buffer is fetched and dispatched tagged with the
// uid. A fetch whose selection was superseded while it was in flight is
// dropped by the reducer rather than overwriting the newer selection.
func (s *Store) SelectSeries(ctx context.Context, uid string) error {
	sessionID := s.State().SessionID
	s.Dispatch(SelectSeries{UID: uid})

	frames, err := s.loadWithRetry(ctx, sessionID, uid)
	if err != nil {
		s.logger.Error("series load failed", "series_uid", uid, "error", err)
		if s.State().SelectedUID == uid {
			s.Dispatch(SetError{Message: fmt.Sprintf("failed to load series: %v", err)})
		}
		return err
	}

	s.Dispatch(SetFrames{UID: uid, Frames: frames})
	return nil
}

// AssignCellSeries rebinds one grid cell. The cell's frame index resets to
// 0 and its buffer is cleared before the fetch starts, so stale frames are
// never shown while the new series loads. The fetched buffer is tagged
// with the uid; if the cell was rebound again in the meantime the reducer
// drops it.
func (s *Store) AssignCellSeries(ctx context.Context, cell int, uid string) error {
	sessionID := s.State().SessionID
	s.Dispatch(AssignCell{Cell: cell, UID: uid})

	if uid == "" {
		return nil
	}

	frames, err := s.loadWithRetry(ctx, sessionID, uid)
	if err != nil {
		s.logger.Error("cell series load failed", "cell", cell, "series_uid", uid, "error", err)
		if s.State().Cells[cell].Config.SeriesUID == uid {
			s.Dispatch(SetError{Message: fmt.Sprintf("failed to load series for cell %d: %v", cell, err)})
		}
		return err
	}

	s.Dispatch(SetCellFrames{Cell: cell, UID: uid, Frames: frames})
	return nil
}

// loadWithRetry fetches with capped exponential backoff. Context
// cancellation aborts between attempts.
func (s *Store) loadWithRetry(ctx context.Context, sessionID, uid string) ([]dto.Frame, error) {
	var lastErr error
	for attempt := 0; attempt < loadAttempts; attempt++ {
		if attempt > 0 {
			delay := loadBackoffBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			s.logger.Debug("retrying series load", "series_uid", uid, "attempt", attempt+1)
		}

		frames, err := s.loader.LoadSeries(ctx, sessionID, uid)
		if err == nil {
			return frames, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
