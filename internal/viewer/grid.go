package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

// GridViewer lays out gridSize² cells over one shared frame list. Cell i
// shows the frame at currentFrame+i when in bounds and stays blank
// otherwise. All cells share one window/level.
type GridViewer struct {
	mu       sync.Mutex
	comp     *Compositor
	logger   *slog.Logger
	canvases []*Canvas
	gridSize int
	cellW    int
	cellH    int
	frames   []dto.Frame
	current  int
	window   WindowLevel
}

func NewGridViewer(gridSize, cellW, cellH int, comp *Compositor, logger *slog.Logger) *GridViewer {
	if logger == nil {
		logger = slog.Default()
	}
	g := &GridViewer{
		comp:   comp,
		logger: logger.With("component", "grid_viewer"),
		cellW:  cellW,
		cellH:  cellH,
		window: DefaultWindowLevel,
	}
	g.setGridSizeLocked(gridSize)
	return g
}

func (g *GridViewer) setGridSizeLocked(size int) {
	if size < MinGridSize {
		size = MinGridSize
	}
	if size > MaxGridSize {
		size = MaxGridSize
	}
	g.gridSize = size
	n := size * size
	canvases := make([]*Canvas, n)
	for i := range canvases {
		canvases[i] = NewCanvas(g.cellW, g.cellH)
	}
	g.canvases = canvases
}

func (g *GridViewer) GridSize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gridSize
}

// Cell returns the canvas for cell i.
func (g *GridViewer) Cell(i int) *Canvas {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canvases[i]
}

func (g *GridViewer) SetGridSize(ctx context.Context, size int) []error {
	g.mu.Lock()
	g.setGridSizeLocked(size)
	g.mu.Unlock()
	return g.Render(ctx)
}

func (g *GridViewer) SetFrames(ctx context.Context, frames []dto.Frame) []error {
	g.mu.Lock()
	g.frames = frames
	g.current = clampFrameIndex(g.current, len(frames))
	g.mu.Unlock()
	return g.Render(ctx)
}

func (g *GridViewer) SetCurrentFrame(ctx context.Context, index int) []error {
	g.mu.Lock()
	g.current = clampFrameIndex(index, len(g.frames))
	g.mu.Unlock()
	return g.Render(ctx)
}

// SetWindowLevel changes the shared pair and re-composites every populated
// cell.
func (g *GridViewer) SetWindowLevel(ctx context.Context, wl WindowLevel) []error {
	g.mu.Lock()
	g.window = wl
	g.mu.Unlock()
	return g.Render(ctx)
}

// Render composites every cell concurrently. Failures are collected per
// cell and never short-circuit siblings; the returned slice has one entry
// per cell (nil on success or blank, ErrSuperseded filtered to nil).
func (g *GridViewer) Render(ctx context.Context) []error {
	g.mu.Lock()
	canvases := g.canvases
	frames := g.frames
	current := g.current
	wl := g.window
	g.mu.Unlock()

	errs := make([]error, len(canvases))
	var wg sync.WaitGroup
	for i, canvas := range canvases {
		idx := current + i
		if idx >= len(frames) {
			canvas.Clear()
			continue
		}
		wg.Add(1)
		go func(i int, canvas *Canvas, frame dto.Frame) {
			defer wg.Done()
			_, err := g.comp.Composite(ctx, canvas, frame, &wl)
			if errors.Is(err, ErrSuperseded) {
				return
			}
			if err != nil {
				g.logger.Warn("cell render failed", "cell", i, "frame_index", frame.Index, "error", err)
				errs[i] = err
			}
		}(i, canvas, frames[idx])
	}
	wg.Wait()
	return errs
}
