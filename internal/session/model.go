package session

import (
	"time"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Session scopes everything produced by one upload. SeriesOrder preserves
// arrival order; series metadata and frames live under their own keys.
type Session struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	SeriesOrder  []string  `json:"series_order"`
	InvalidFiles []string  `json:"invalid_files"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func (s *Session) RedisKey() string {
	return "session:" + s.ID
}

// SeriesMeta is the stored metadata for one series within a session.
type SeriesMeta struct {
	UID         string   `json:"uid"`
	SeriesDesc  string   `json:"series_desc"`
	Modality    string   `json:"modality"`
	PatientName string   `json:"patient_name"`
	PatientID   string   `json:"patient_id"`
	StudyDesc   string   `json:"study_desc"`
	FrameCount  int      `json:"frame_count"`
	Examples    []string `json:"examples,omitempty"`
}

func (m *SeriesMeta) Info() dto.SeriesInfo {
	return dto.SeriesInfo{
		UID:         m.UID,
		SeriesDesc:  m.SeriesDesc,
		Modality:    m.Modality,
		PatientName: m.PatientName,
		PatientID:   m.PatientID,
		StudyDesc:   m.StudyDesc,
		FrameCount:  m.FrameCount,
		Examples:    m.Examples,
	}
}

func seriesKey(sessionID, uid string) string {
	return "session:" + sessionID + ":series:" + uid
}

func framesKey(sessionID, uid string) string {
	return seriesKey(sessionID, uid) + ":frames"
}
