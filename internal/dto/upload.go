package dto

type SeriesInfo struct {
	UID         string   `json:"uid" example:"1.2.840.113619.2.5.1762583153"`
	SeriesDesc  string   `json:"series_desc" example:"AX T2 FLAIR"`
	Modality    string   `json:"modality" example:"MR"`
	PatientName string   `json:"patient_name" example:"DOE^JANE"`
	PatientID   string   `json:"patient_id" example:"PAT001"`
	StudyDesc   string   `json:"study_desc" example:"BRAIN W/O CONTRAST"`
	FrameCount  int      `json:"frame_count" example:"24"`
	Examples    []string `json:"examples,omitempty"`
}

type UploadResponse struct {
	SessionID    string       `json:"session_id" example:"sess_a1b2c3"`
	Series       []SeriesInfo `json:"series"`
	InvalidFiles []string     `json:"invalid_files"`
	TotalSeries  int          `json:"total_series" example:"3"`
}

type SessionsResponse struct {
	Sessions []string `json:"sessions"`
	Count    int      `json:"count" example:"2"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Session deleted successfully"`
}
