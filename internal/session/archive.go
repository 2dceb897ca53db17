package session

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/eleven-am/dicom-viewer/internal/shared"
)

// StudyRecord is the durable archive row for one uploaded series. Sessions
// expire from redis; the archive keeps what was seen.
type StudyRecord struct {
	ID          uint   `gorm:"primarykey"`
	SessionID   string `gorm:"index"`
	SeriesUID   string `gorm:"index"`
	PatientName string
	PatientID   string `gorm:"index"`
	StudyDesc   string
	SeriesDesc  string
	Modality    string
	FrameCount  int
	Examples    shared.StringSlice `gorm:"type:text"`
	CreatedAt   time.Time
}

type ArchiveStore struct {
	db *gorm.DB
}

func NewArchiveStore(db *gorm.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

func (s *ArchiveStore) Migrate() error {
	return s.db.AutoMigrate(&StudyRecord{})
}

func (s *ArchiveStore) Record(ctx context.Context, rec *StudyRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *ArchiveStore) ListRecent(ctx context.Context, limit int) ([]StudyRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []StudyRecord
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (s *ArchiveStore) ListByPatient(ctx context.Context, patientID string) ([]StudyRecord, error) {
	var records []StudyRecord
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
