package viewer

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

// SingleViewer owns one canvas and renders the frame at the current index.
// New frames, a new index, or a new window/level re-run the full
// decode-and-composite; a resize re-composites the last decoded bitmap at
// the new dimensions without touching the source payload.
type SingleViewer struct {
	mu         sync.Mutex
	canvas     *Canvas
	comp       *Compositor
	logger     *slog.Logger
	frames     []dto.Frame
	index      int
	window     WindowLevel
	lastBitmap image.Image
	loading    bool
	err        error
}

func NewSingleViewer(width, height int, comp *Compositor, logger *slog.Logger) *SingleViewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SingleViewer{
		canvas: NewCanvas(width, height),
		comp:   comp,
		logger: logger.With("component", "single_viewer"),
		window: DefaultWindowLevel,
	}
}

func (v *SingleViewer) Canvas() *Canvas { return v.canvas }

func (v *SingleViewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *SingleViewer) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *SingleViewer) SetFrames(ctx context.Context, frames []dto.Frame) error {
	v.mu.Lock()
	v.frames = frames
	v.index = clampFrameIndex(v.index, len(frames))
	v.mu.Unlock()
	return v.render(ctx)
}

func (v *SingleViewer) SetFrameIndex(ctx context.Context, index int) error {
	v.mu.Lock()
	v.index = clampFrameIndex(index, len(v.frames))
	v.mu.Unlock()
	return v.render(ctx)
}

func (v *SingleViewer) SetWindowLevel(ctx context.Context, wl WindowLevel) error {
	v.mu.Lock()
	v.window = wl
	v.mu.Unlock()
	return v.render(ctx)
}

// Resize redraws the cached bitmap at the new canvas dimensions,
// re-applying the current window/level. Nothing is re-decoded.
func (v *SingleViewer) Resize(width, height int) error {
	v.canvas.Resize(width, height)

	v.mu.Lock()
	bitmap := v.lastBitmap
	wl := v.window
	v.mu.Unlock()

	if bitmap == nil {
		return nil
	}
	return v.comp.CompositeBitmap(v.canvas, bitmap, &wl)
}

func (v *SingleViewer) render(ctx context.Context) error {
	v.mu.Lock()
	if len(v.frames) == 0 {
		v.mu.Unlock()
		v.canvas.Clear()
		return nil
	}
	frame := v.frames[v.index]
	wl := v.window
	v.loading = true
	v.mu.Unlock()

	bitmap, err := v.comp.Composite(ctx, v.canvas, frame, &wl)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false

	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	if err != nil {
		v.err = err
		v.logger.Warn("frame render failed", "frame_index", frame.Index, "error", err)
		return err
	}
	v.err = nil
	v.lastBitmap = bitmap
	return nil
}
