package viewer

import (
	"context"
	"errors"
	"testing"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

// windowed maps one gray value through the window/level transform, for
// asserting composited pixels without duplicating the remap arithmetic.
func windowed(value uint8, wl WindowLevel) uint8 {
	pix := []uint8{value, value, value, 255}
	ApplyWindowLevel(pix, wl)
	return pix[0]
}

func TestSingleViewer_RendersCurrentFrame(t *testing.T) {
	v := NewSingleViewer(40, 40, NewCompositor(testLogger()), testLogger())
	ctx := context.Background()

	frames := []dto.Frame{
		grayFrame(t, 40, 40, 60),
		grayFrame(t, 40, 40, 180),
	}
	if err := v.SetFrames(ctx, frames); err != nil {
		t.Fatalf("SetFrames: %v", err)
	}
	if got, want := redAt(t, v.Canvas(), 20, 20), windowed(60, DefaultWindowLevel); got != want {
		t.Errorf("frame 0 pixel = %d, want %d", got, want)
	}

	if err := v.SetFrameIndex(ctx, 1); err != nil {
		t.Fatalf("SetFrameIndex: %v", err)
	}
	if got, want := redAt(t, v.Canvas(), 20, 20), windowed(180, DefaultWindowLevel); got != want {
		t.Errorf("frame 1 pixel = %d, want %d", got, want)
	}
}

func TestSingleViewer_IndexClamped(t *testing.T) {
	v := NewSingleViewer(20, 20, NewCompositor(testLogger()), testLogger())
	ctx := context.Background()

	frames := []dto.Frame{grayFrame(t, 20, 20, 50), grayFrame(t, 20, 20, 250)}
	if err := v.SetFrames(ctx, frames); err != nil {
		t.Fatalf("SetFrames: %v", err)
	}
	if err := v.SetFrameIndex(ctx, 99); err != nil {
		t.Fatalf("SetFrameIndex: %v", err)
	}
	if got, want := redAt(t, v.Canvas(), 10, 10), windowed(250, DefaultWindowLevel); got != want {
		t.Errorf("pixel = %d, want last frame's %d", got, want)
	}
}

func TestSingleViewer_WindowLevelRerenders(t *testing.T) {
	v := NewSingleViewer(20, 20, NewCompositor(testLogger()), testLogger())
	ctx := context.Background()

	if err := v.SetFrames(ctx, []dto.Frame{grayFrame(t, 20, 20, 178)}); err != nil {
		t.Fatalf("SetFrames: %v", err)
	}
	// 178 sits exactly at the top of a width-100 window around level 128.
	if err := v.SetWindowLevel(ctx, WindowLevel{Width: 100, Level: 128}); err != nil {
		t.Fatalf("SetWindowLevel: %v", err)
	}
	if got := redAt(t, v.Canvas(), 10, 10); got != 255 {
		t.Errorf("windowed pixel = %d, want 255", got)
	}
}

func TestSingleViewer_DecodeErrorRecorded(t *testing.T) {
	v := NewSingleViewer(20, 20, NewCompositor(testLogger()), testLogger())
	ctx := context.Background()

	if err := v.SetFrames(ctx, []dto.Frame{grayFrame(t, 20, 20, 90)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before, _, _, _ := v.Canvas().At(10, 10).RGBA()

	err := v.SetFrames(ctx, []dto.Frame{{Index: 0, Data: "garbage"}})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want DecodeError", err)
	}
	if v.Err() == nil {
		t.Error("viewer error not recorded")
	}
	// The failed decode must not blank or corrupt the prior pixels.
	after, _, _, _ := v.Canvas().At(10, 10).RGBA()
	if before != after {
		t.Errorf("canvas changed on failed decode: %d -> %d", before, after)
	}
}

func TestSingleViewer_ErrClearedOnRecovery(t *testing.T) {
	v := NewSingleViewer(20, 20, NewCompositor(testLogger()), testLogger())
	ctx := context.Background()

	_ = v.SetFrames(ctx, []dto.Frame{{Data: "garbage"}})
	if v.Err() == nil {
		t.Fatal("expected recorded error")
	}
	if err := v.SetFrames(ctx, []dto.Frame{grayFrame(t, 20, 20, 33)}); err != nil {
		t.Fatalf("recovery render: %v", err)
	}
	if v.Err() != nil {
		t.Errorf("error not cleared after good render: %v", v.Err())
	}
}

func TestSingleViewer_ResizeReusesBitmap(t *testing.T) {
	v := NewSingleViewer(20, 20, NewCompositor(testLogger()), testLogger())
	ctx := context.Background()

	if err := v.SetFrames(ctx, []dto.Frame{grayFrame(t, 20, 20, 140)}); err != nil {
		t.Fatalf("SetFrames: %v", err)
	}
	if err := v.Resize(60, 60); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := v.Canvas().Size(); w != 60 || h != 60 {
		t.Fatalf("size = %dx%d", w, h)
	}
	if got, want := redAt(t, v.Canvas(), 30, 30), windowed(140, DefaultWindowLevel); got != want {
		t.Errorf("pixel after resize = %d, want %d", got, want)
	}
}

func TestSingleViewer_EmptyFramesClears(t *testing.T) {
	v := NewSingleViewer(20, 20, NewCompositor(testLogger()), testLogger())
	ctx := context.Background()

	if err := v.SetFrames(ctx, []dto.Frame{grayFrame(t, 20, 20, 200)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := v.SetFrames(ctx, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := redAt(t, v.Canvas(), 10, 10); got != 0 {
		t.Errorf("canvas not cleared: %d", got)
	}
}
