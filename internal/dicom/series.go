package dicom

import (
	"log/slog"
	"sort"

	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

// missingKey sorts files without an ordering tag after everything that has
// one.
const missingKey = 1e12

// Series is one grouped acquisition ready for storage: metadata plus
// ordered, encoded frames.
type Series struct {
	UID         string
	SeriesDesc  string
	Modality    string
	PatientName string
	PatientID   string
	StudyDesc   string
	Examples    []string
	Frames      []dto.Frame
}

func (s *Series) Info() dto.SeriesInfo {
	examples := s.Examples
	if len(examples) > 5 {
		examples = examples[:5]
	}
	return dto.SeriesInfo{
		UID:         s.UID,
		SeriesDesc:  s.SeriesDesc,
		Modality:    s.Modality,
		PatientName: s.PatientName,
		PatientID:   s.PatientID,
		StudyDesc:   s.StudyDesc,
		FrameCount:  len(s.Frames),
		Examples:    examples,
	}
}

// orderKey sorts frames within a series: InstanceNumber, then ImageIndex,
// then AcquisitionNumber, then AcquisitionTime, then position within the
// source file.
type orderKey struct {
	instance float64
	imgIndex float64
	acqNum   float64
	acqTime  float64
	sub      int
}

func (a orderKey) less(b orderKey) bool {
	if a.instance != b.instance {
		return a.instance < b.instance
	}
	if a.imgIndex != b.imgIndex {
		return a.imgIndex < b.imgIndex
	}
	if a.acqNum != b.acqNum {
		return a.acqNum < b.acqNum
	}
	if a.acqTime != b.acqTime {
		return a.acqTime < b.acqTime
	}
	return a.sub < b.sub
}

type keyedFrame struct {
	key   orderKey
	frame rawFrame
}

type seriesBuilder struct {
	series *Series
	keyed  []keyedFrame
}

// GroupBySeries parses each file, groups frames by SeriesInstanceUID, and
// returns series in first-seen order with frames sorted and encoded.
// Unparseable files and files without a series UID are skipped.
func GroupBySeries(files []File, logger *slog.Logger) []*Series {
	if logger == nil {
		logger = slog.Default()
	}

	builders := map[string]*seriesBuilder{}
	var order []string

	for _, f := range files {
		ds, err := parseDataset(f.Data)
		if err != nil {
			logger.Debug("skipping non-DICOM file", "file", f.Name, "error", err)
			continue
		}

		uid := stringAttr(ds, tag.SeriesInstanceUID)
		if uid == "" {
			continue
		}

		frames, err := extractFrames(ds)
		if err != nil {
			logger.Warn("pixel data extraction failed", "file", f.Name, "error", err)
			frames = nil
		}

		b, ok := builders[uid]
		if !ok {
			b = &seriesBuilder{series: &Series{
				UID:         uid,
				SeriesDesc:  stringAttr(ds, tag.SeriesDescription),
				Modality:    stringAttr(ds, tag.Modality),
				PatientName: stringAttr(ds, tag.PatientName),
				PatientID:   stringAttr(ds, tag.PatientID),
				StudyDesc:   stringAttr(ds, tag.StudyDescription),
			}}
			builders[uid] = b
			order = append(order, uid)
		}

		base := orderKey{
			instance: missingKey,
			imgIndex: missingKey,
			acqNum:   missingKey,
			acqTime:  parseTimeToSeconds(stringAttr(ds, tag.AcquisitionTime)),
		}
		if v, ok := numericAttr(ds, tag.InstanceNumber); ok {
			base.instance = v
		}
		if v, ok := numericAttr(ds, tag.ImageIndex); ok {
			base.imgIndex = v
		}
		if v, ok := numericAttr(ds, tag.AcquisitionNumber); ok {
			base.acqNum = v
		}

		for i, fr := range frames {
			key := base
			key.sub = i
			b.keyed = append(b.keyed, keyedFrame{key: key, frame: fr})
		}
		b.series.Examples = append(b.series.Examples, f.Name)
	}

	result := make([]*Series, 0, len(order))
	for _, uid := range order {
		b := builders[uid]
		sort.SliceStable(b.keyed, func(i, j int) bool {
			return b.keyed[i].key.less(b.keyed[j].key)
		})

		for idx, kf := range b.keyed {
			data, err := encodeFrame(kf.frame)
			if err != nil {
				logger.Warn("frame encode failed", "series_uid", uid, "frame", idx, "error", err)
				continue
			}
			b.series.Frames = append(b.series.Frames, dto.Frame{
				Index:  len(b.series.Frames),
				Data:   data,
				Width:  kf.frame.width,
				Height: kf.frame.height,
			})
		}
		result = append(result, b.series)
	}
	return result
}
