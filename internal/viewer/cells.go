package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

// MultiViewer is the per-cell grid: every cell binds independently to a
// series, frame index, and window/level, with its own frame buffer. Cells
// re-render only when their own binding changes, except for the broadcast
// window/level path which touches every populated cell.
type MultiViewer struct {
	mu        sync.Mutex
	comp      *Compositor
	loader    SeriesLoader
	logger    *slog.Logger
	sessionID string
	cells     []*multiCell
	cellW     int
	cellH     int
}

type multiCell struct {
	canvas *Canvas
	config CellConfig
	window WindowLevel
	frames []dto.Frame
	err    error
}

func NewMultiViewer(totalCells, cellW, cellH int, comp *Compositor, loader SeriesLoader, logger *slog.Logger) *MultiViewer {
	if logger == nil {
		logger = slog.Default()
	}
	cells := make([]*multiCell, totalCells)
	for i := range cells {
		cells[i] = &multiCell{
			canvas: NewCanvas(cellW, cellH),
			window: DefaultWindowLevel,
		}
	}
	return &MultiViewer{
		comp:   comp,
		loader: loader,
		logger: logger.With("component", "multi_viewer"),
		cells:  cells,
		cellW:  cellW,
		cellH:  cellH,
	}
}

func (m *MultiViewer) SetSession(sessionID string) {
	m.mu.Lock()
	m.sessionID = sessionID
	m.mu.Unlock()
}

func (m *MultiViewer) TotalCells() int { return len(m.cells) }

func (m *MultiViewer) Cell(i int) *Canvas { return m.cells[i].canvas }

func (m *MultiViewer) CellConfig(i int) CellConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cells[i].config
}

func (m *MultiViewer) CellErr(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cells[i].err
}

func (m *MultiViewer) cellAt(i int) (*multiCell, error) {
	if i < 0 || i >= len(m.cells) {
		return nil, fmt.Errorf("cell %d out of range [0,%d)", i, len(m.cells))
	}
	return m.cells[i], nil
}

// AssignSeries rebinds cell i: the frame index resets to 0 and the old
// buffer is cleared before the fetch, so superseded frames never linger on
// screen while the new series loads. An empty uid unassigns the cell.
func (m *MultiViewer) AssignSeries(ctx context.Context, i int, uid string) error {
	cell, err := m.cellAt(i)
	if err != nil {
		return err
	}

	m.mu.Lock()
	sessionID := m.sessionID
	cell.config = CellConfig{SeriesUID: uid, FrameIndex: 0}
	cell.frames = nil
	cell.err = nil
	m.mu.Unlock()
	cell.canvas.Clear()

	if uid == "" {
		return nil
	}

	frames, err := m.loader.LoadSeries(ctx, sessionID, uid)
	if err != nil {
		m.mu.Lock()
		cell.err = err
		m.mu.Unlock()
		m.logger.Error("cell series fetch failed", "cell", i, "series_uid", uid, "error", err)
		return err
	}

	m.mu.Lock()
	// The binding may have changed while the fetch was in flight.
	if cell.config.SeriesUID != uid {
		m.mu.Unlock()
		return nil
	}
	cell.frames = frames
	m.mu.Unlock()

	return m.renderCell(ctx, i)
}

func (m *MultiViewer) SetCellFrame(ctx context.Context, i, index int) error {
	cell, err := m.cellAt(i)
	if err != nil {
		return err
	}
	m.mu.Lock()
	cell.config.FrameIndex = clampFrameIndex(index, len(cell.frames))
	m.mu.Unlock()
	return m.renderCell(ctx, i)
}

func (m *MultiViewer) SetCellFrames(ctx context.Context, i int, frames []dto.Frame) error {
	cell, err := m.cellAt(i)
	if err != nil {
		return err
	}
	m.mu.Lock()
	cell.frames = frames
	cell.config.FrameIndex = clampFrameIndex(cell.config.FrameIndex, len(frames))
	m.mu.Unlock()
	return m.renderCell(ctx, i)
}

func (m *MultiViewer) SetCellWindowLevel(ctx context.Context, i int, wl WindowLevel) error {
	cell, err := m.cellAt(i)
	if err != nil {
		return err
	}
	m.mu.Lock()
	cell.window = wl
	m.mu.Unlock()
	return m.renderCell(ctx, i)
}

// SetAllWindowLevels broadcasts one pair to every populated cell. This is
// the "reset all" path, distinct from the per-cell sliders.
func (m *MultiViewer) SetAllWindowLevels(ctx context.Context, wl WindowLevel) []error {
	m.mu.Lock()
	for _, cell := range m.cells {
		cell.window = wl
	}
	m.mu.Unlock()

	errs := make([]error, len(m.cells))
	var wg sync.WaitGroup
	for i := range m.cells {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.renderCell(ctx, i)
		}(i)
	}
	wg.Wait()
	return errs
}

func (m *MultiViewer) renderCell(ctx context.Context, i int) error {
	cell := m.cells[i]

	m.mu.Lock()
	if cell.config.SeriesUID == "" || len(cell.frames) == 0 {
		m.mu.Unlock()
		cell.canvas.Clear()
		return nil
	}
	frame := cell.frames[clampFrameIndex(cell.config.FrameIndex, len(cell.frames))]
	wl := cell.window
	m.mu.Unlock()

	_, err := m.comp.Composite(ctx, cell.canvas, frame, &wl)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}

	m.mu.Lock()
	cell.err = err
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("cell render failed", "cell", i, "frame_index", frame.Index, "error", err)
	}
	return err
}
