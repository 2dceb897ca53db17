package dto

// Frame is one 2D slice on the wire. Data is a base64-encoded PNG; viewers
// may also receive it wrapped in a data URI.
type Frame struct {
	Index  int    `json:"index" example:"0"`
	Data   string `json:"data"`
	Width  int    `json:"width" example:"512"`
	Height int    `json:"height" example:"512"`
}

type SeriesResponse struct {
	SeriesUID   string  `json:"series_uid"`
	SeriesDesc  string  `json:"series_desc"`
	Modality    string  `json:"modality"`
	PatientName string  `json:"patient_name"`
	PatientID   string  `json:"patient_id"`
	StudyDesc   string  `json:"study_desc"`
	FrameCount  int     `json:"frame_count" example:"24"`
	Frames      []Frame `json:"frames"`
}

type FrameResponse struct {
	FrameIndex  int    `json:"frame_index" example:"3"`
	Data        string `json:"data"`
	Width       int    `json:"width" example:"512"`
	Height      int    `json:"height" example:"512"`
	TotalFrames int    `json:"total_frames" example:"24"`
}

type StudyRecordResponse struct {
	SessionID   string `json:"session_id"`
	SeriesUID   string `json:"series_uid"`
	PatientName string `json:"patient_name"`
	PatientID   string `json:"patient_id"`
	StudyDesc   string `json:"study_desc"`
	SeriesDesc  string `json:"series_desc"`
	Modality    string `json:"modality"`
	FrameCount  int    `json:"frame_count"`
	CreatedAt   string `json:"created_at"`
}
