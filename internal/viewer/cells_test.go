package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

// fakeLoader serves canned frame buffers per series UID and records calls.
type fakeLoader struct {
	mu     sync.Mutex
	series map[string][]dto.Frame
	err    error
	calls  []string
}

func (f *fakeLoader) LoadSeries(ctx context.Context, sessionID, seriesUID string) ([]dto.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, seriesUID)
	if f.err != nil {
		return nil, f.err
	}
	frames, ok := f.series[seriesUID]
	if !ok {
		return nil, errors.New("unknown series")
	}
	return frames, nil
}

func TestMultiViewer_AssignSeriesLoadsAndRenders(t *testing.T) {
	loader := &fakeLoader{series: map[string][]dto.Frame{
		"uid-a": {grayFrame(t, 20, 20, 120)},
	}}
	m := NewMultiViewer(4, 20, 20, NewCompositor(testLogger()), loader, testLogger())
	m.SetSession("sess_1")

	if err := m.AssignSeries(context.Background(), 1, "uid-a"); err != nil {
		t.Fatalf("AssignSeries: %v", err)
	}

	cfg := m.CellConfig(1)
	if cfg.SeriesUID != "uid-a" || cfg.FrameIndex != 0 {
		t.Errorf("config = %+v", cfg)
	}
	if got, want := redAt(t, m.Cell(1), 10, 10), windowed(120, DefaultWindowLevel); got != want {
		t.Errorf("cell pixel = %d, want %d", got, want)
	}
}

func TestMultiViewer_AssignSeriesResetsBeforeFetch(t *testing.T) {
	first := grayFrame(t, 20, 20, 240)
	loader := &fakeLoader{series: map[string][]dto.Frame{"uid-1": {first, first}}}
	m := NewMultiViewer(1, 20, 20, NewCompositor(testLogger()), loader, testLogger())
	m.SetSession("sess_1")

	if err := m.AssignSeries(context.Background(), 0, "uid-1"); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if err := m.SetCellFrame(context.Background(), 0, 1); err != nil {
		t.Fatalf("SetCellFrame: %v", err)
	}

	// The reassign target does not exist, so the fetch fails; the cell must
	// already be cleared and its index reset regardless.
	if err := m.AssignSeries(context.Background(), 0, "uid-missing"); err == nil {
		t.Fatal("want fetch error")
	}
	cfg := m.CellConfig(0)
	if cfg.FrameIndex != 0 {
		t.Errorf("frame index = %d, want 0", cfg.FrameIndex)
	}
	if got := redAt(t, m.Cell(0), 10, 10); got != 0 {
		t.Errorf("old series still visible: %d", got)
	}
	if m.CellErr(0) == nil {
		t.Error("fetch error not recorded on cell")
	}
}

func TestMultiViewer_UnassignClearsCell(t *testing.T) {
	loader := &fakeLoader{series: map[string][]dto.Frame{"uid-1": {grayFrame(t, 20, 20, 200)}}}
	m := NewMultiViewer(1, 20, 20, NewCompositor(testLogger()), loader, testLogger())

	if err := m.AssignSeries(context.Background(), 0, "uid-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := m.AssignSeries(context.Background(), 0, ""); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if cfg := m.CellConfig(0); cfg.SeriesUID != "" {
		t.Errorf("config = %+v", cfg)
	}
	if got := redAt(t, m.Cell(0), 10, 10); got != 0 {
		t.Errorf("cell not blanked: %d", got)
	}

	// No fetch for the empty UID.
	loader.mu.Lock()
	defer loader.mu.Unlock()
	if len(loader.calls) != 1 {
		t.Errorf("loader calls = %v", loader.calls)
	}
}

func TestMultiViewer_CellsIndependent(t *testing.T) {
	loader := &fakeLoader{series: map[string][]dto.Frame{
		"uid-a": {grayFrame(t, 20, 20, 40)},
		"uid-b": {grayFrame(t, 20, 20, 220)},
	}}
	m := NewMultiViewer(2, 20, 20, NewCompositor(testLogger()), loader, testLogger())
	ctx := context.Background()

	if err := m.AssignSeries(ctx, 0, "uid-a"); err != nil {
		t.Fatalf("assign 0: %v", err)
	}
	if err := m.AssignSeries(ctx, 1, "uid-b"); err != nil {
		t.Fatalf("assign 1: %v", err)
	}

	// Windowing one cell leaves the other untouched.
	if err := m.SetCellWindowLevel(ctx, 1, WindowLevel{Width: 100, Level: 128}); err != nil {
		t.Fatalf("SetCellWindowLevel: %v", err)
	}
	if got, want := redAt(t, m.Cell(0), 10, 10), windowed(40, DefaultWindowLevel); got != want {
		t.Errorf("cell 0 pixel = %d, want %d", got, want)
	}
	if got := redAt(t, m.Cell(1), 10, 10); got != 255 {
		t.Errorf("cell 1 pixel = %d, want 255", got)
	}
}

func TestMultiViewer_SetAllWindowLevels(t *testing.T) {
	loader := &fakeLoader{series: map[string][]dto.Frame{
		"uid-a": {grayFrame(t, 20, 20, 178)},
	}}
	m := NewMultiViewer(3, 20, 20, NewCompositor(testLogger()), loader, testLogger())
	ctx := context.Background()

	if err := m.AssignSeries(ctx, 0, "uid-a"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := m.AssignSeries(ctx, 2, "uid-a"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	for i, err := range m.SetAllWindowLevels(ctx, WindowLevel{Width: 100, Level: 128}) {
		if err != nil {
			t.Fatalf("cell %d: %v", i, err)
		}
	}
	for _, i := range []int{0, 2} {
		if got := redAt(t, m.Cell(i), 10, 10); got != 255 {
			t.Errorf("cell %d = %d, want 255", i, got)
		}
	}
	// The unassigned middle cell stays blank.
	if got := redAt(t, m.Cell(1), 10, 10); got != 0 {
		t.Errorf("unassigned cell = %d, want 0", got)
	}
}

func TestMultiViewer_CellIndexOutOfRange(t *testing.T) {
	m := NewMultiViewer(2, 10, 10, NewCompositor(testLogger()), &fakeLoader{}, testLogger())
	if err := m.AssignSeries(context.Background(), 5, "uid"); err == nil {
		t.Error("want range error")
	}
	if err := m.SetCellFrame(context.Background(), -1, 0); err == nil {
		t.Error("want range error")
	}
}
