package viewer

import (
	"github.com/eleven-am/dicom-viewer/internal/dto"
	"github.com/eleven-am/dicom-viewer/internal/shared"
)

const (
	MinGridSize = 1
	MaxGridSize = 4

	DefaultPlaySpeed = 8.0
)

// CellConfig binds one grid cell to a series and frame. An empty SeriesUID
// means unassigned: the cell renders blank.
type CellConfig struct {
	SeriesUID  string `json:"seriesUid"`
	FrameIndex int    `json:"frameIndex"`
}

// CellState is everything one grid cell owns: its binding, its own
// window/level, and its own frame buffer.
type CellState struct {
	Config CellConfig
	Window WindowLevel
	Frames []dto.Frame
}

// ViewParameters are the shared view controls.
type ViewParameters struct {
	Window       WindowLevel
	CurrentFrame int
	Playing      bool
	PlaySpeed    float64
	GridSize     int
}

// State is the single source of truth. It is advanced only through Reduce;
// viewer components read it and never mutate it directly.
type State struct {
	SessionID    string
	Series       []dto.SeriesInfo
	InvalidFiles []string

	SelectedUID string
	Frames      []dto.Frame

	View  ViewParameters
	Cells map[int]CellState

	Err string
}

func NewState() State {
	return State{
		View: ViewParameters{
			Window:    DefaultWindowLevel,
			PlaySpeed: DefaultPlaySpeed,
			GridSize:  2,
		},
		Cells: map[int]CellState{},
	}
}

// Action is a named state transition.
type Action interface {
	actionName() string
}

type LoadSession struct {
	SessionID    string
	Series       []dto.SeriesInfo
	InvalidFiles []string
}

type SelectSeries struct{ UID string }

// SetFrames installs the shared frame buffer. A non-empty UID tags the
// buffer with the selection it was fetched for; the reducer drops the
// action when the selection has moved on, so a slow fetch can never land
// another series' frames.
type SetFrames struct {
	UID    string
	Frames []dto.Frame
}

type SetCurrentFrame struct{ Index int }

type AdvanceFrame struct{}

type SetWindowLevel struct{ Window WindowLevel }

type SetGridSize struct{ Size int }

type AssignCell struct {
	Cell int
	UID  string
}

// SetCellFrames installs one cell's frame buffer. As with SetFrames, a
// non-empty UID must still match the cell's binding or the action is
// dropped.
type SetCellFrames struct {
	Cell   int
	UID    string
	Frames []dto.Frame
}

type SetCellFrame struct {
	Cell  int
	Index int
}

type SetCellWindowLevel struct {
	Cell   int
	Window WindowLevel
}

type SetAllCellWindowLevels struct{ Window WindowLevel }

type SetPlaying struct{ Playing bool }

type SetPlaySpeed struct{ Speed float64 }

type SetError struct{ Message string }

type ClearError struct{}

type ResetView struct{}

func (LoadSession) actionName() string            { return "LOAD_SESSION" }
func (SelectSeries) actionName() string           { return "SELECT_SERIES" }
func (SetFrames) actionName() string              { return "SET_FRAMES" }
func (SetCurrentFrame) actionName() string        { return "SET_CURRENT_FRAME" }
func (AdvanceFrame) actionName() string           { return "ADVANCE_FRAME" }
func (SetWindowLevel) actionName() string         { return "SET_WINDOW_LEVEL" }
func (SetGridSize) actionName() string            { return "SET_GRID_SIZE" }
func (AssignCell) actionName() string             { return "ASSIGN_CELL" }
func (SetCellFrames) actionName() string          { return "SET_CELL_FRAMES" }
func (SetCellFrame) actionName() string           { return "SET_CELL_FRAME" }
func (SetCellWindowLevel) actionName() string     { return "SET_CELL_WINDOW_LEVEL" }
func (SetAllCellWindowLevels) actionName() string { return "SET_ALL_CELL_WINDOW_LEVELS" }
func (SetPlaying) actionName() string             { return "SET_PLAYING" }
func (SetPlaySpeed) actionName() string           { return "SET_PLAY_SPEED" }
func (SetError) actionName() string               { return "SET_ERROR" }
func (ClearError) actionName() string             { return "CLEAR_ERROR" }
func (ResetView) actionName() string              { return "RESET_VIEW" }

// Reduce is the pure transition function. Side effects (fetches) live in
// the Store wrappers, never here.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoadSession:
		next := NewState()
		next.SessionID = a.SessionID
		next.Series = a.Series
		next.InvalidFiles = a.InvalidFiles
		return next

	case SelectSeries:
		s.SelectedUID = a.UID
		s.Frames = nil
		s.View.CurrentFrame = 0
		s.View.Playing = false
		return s

	case SetFrames:
		if a.UID != "" && a.UID != s.SelectedUID {
			return s
		}
		s.Frames = a.Frames
		s.View.CurrentFrame = clampFrameIndex(s.View.CurrentFrame, len(a.Frames))
		return s

	case SetCurrentFrame:
		s.View.CurrentFrame = clampFrameIndex(a.Index, len(s.Frames))
		return s

	case AdvanceFrame:
		if n := len(s.Frames); n > 0 {
			s.View.CurrentFrame = (s.View.CurrentFrame + 1) % n
		}
		return s

	case SetWindowLevel:
		s.View.Window = a.Window
		return s

	case SetGridSize:
		s.View.GridSize = shared.Clamp(a.Size, MinGridSize, MaxGridSize)
		return s

	case AssignCell:
		cells := copyCells(s.Cells)
		cell := cells[a.Cell]
		cell.Config = CellConfig{SeriesUID: a.UID, FrameIndex: 0}
		cell.Frames = nil
		if cell.Window == (WindowLevel{}) {
			cell.Window = DefaultWindowLevel
		}
		cells[a.Cell] = cell
		s.Cells = cells
		return s

	case SetCellFrames:
		cells := copyCells(s.Cells)
		cell := cells[a.Cell]
		if a.UID != "" && cell.Config.SeriesUID != a.UID {
			return s
		}
		cell.Frames = a.Frames
		cell.Config.FrameIndex = clampFrameIndex(cell.Config.FrameIndex, len(a.Frames))
		cells[a.Cell] = cell
		s.Cells = cells
		return s

	case SetCellFrame:
		cells := copyCells(s.Cells)
		cell := cells[a.Cell]
		cell.Config.FrameIndex = clampFrameIndex(a.Index, len(cell.Frames))
		cells[a.Cell] = cell
		s.Cells = cells
		return s

	case SetCellWindowLevel:
		cells := copyCells(s.Cells)
		cell := cells[a.Cell]
		cell.Window = a.Window
		cells[a.Cell] = cell
		s.Cells = cells
		return s

	case SetAllCellWindowLevels:
		cells := copyCells(s.Cells)
		for i, cell := range cells {
			cell.Window = a.Window
			cells[i] = cell
		}
		s.Cells = cells
		return s

	case SetPlaying:
		if len(s.Frames) == 0 {
			s.View.Playing = false
			return s
		}
		s.View.Playing = a.Playing
		return s

	case SetPlaySpeed:
		if a.Speed > 0 {
			s.View.PlaySpeed = a.Speed
		}
		return s

	case SetError:
		s.Err = a.Message
		return s

	case ClearError:
		s.Err = ""
		return s

	case ResetView:
		s.View.Window = DefaultWindowLevel
		cells := copyCells(s.Cells)
		for i, cell := range cells {
			cell.Window = DefaultWindowLevel
			cells[i] = cell
		}
		s.Cells = cells
		return s
	}

	return s
}

// clampFrameIndex keeps an index inside [0, count-1]; an empty list pins it
// at 0.
func clampFrameIndex(idx, count int) int {
	if count <= 0 {
		return 0
	}
	return shared.Clamp(idx, 0, count-1)
}

func copyCells(cells map[int]CellState) map[int]CellState {
	next := make(map[int]CellState, len(cells))
	for i, c := range cells {
		next[i] = c
	}
	return next
}
