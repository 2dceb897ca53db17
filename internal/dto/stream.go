package dto

// StreamCommand is a client → server message on the cine websocket.
type StreamCommand struct {
	Type  string  `json:"type" example:"play"` // play, pause, speed, seek
	Speed float64 `json:"speed,omitempty" example:"8"`
	Index int     `json:"index,omitempty" example:"12"`
}

// StreamFrame is a server → client cine tick.
type StreamFrame struct {
	FrameIndex  int    `json:"frame_index"`
	Data        string `json:"data"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	TotalFrames int    `json:"total_frames"`
}
