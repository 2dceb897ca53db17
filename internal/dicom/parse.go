// Package dicom turns uploaded DICOM files into viewable series: it parses
// datasets, normalizes pixel data to 8-bit grayscale, and groups ordered
// frames by SeriesInstanceUID.
package dicom

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// File is one entry extracted from an uploaded ZIP.
type File struct {
	Name string
	Data []byte
}

// parseDataset parses a blob as DICOM. Files without the standard preamble
// still parse when the library can make sense of them; anything else
// errors and the caller skips the file.
func parseDataset(data []byte) (*dicom.Dataset, error) {
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &ds, nil
}

// stringAttr reads a string-valued element, empty when absent.
func stringAttr(ds *dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	switch v := el.Value.GetValue().(type) {
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	case string:
		return strings.TrimSpace(v)
	}
	return ""
}

// numericAttr reads a numeric element. DICOM IS values arrive as strings,
// so both representations are accepted. Missing values report ok=false.
func numericAttr(ds *dicom.Dataset, t tag.Tag) (float64, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, false
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v[0]), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// parseTimeToSeconds converts a DICOM TM value (HHMMSS.FFFFFF) to seconds
// since midnight. Malformed values order as 0 rather than failing the file.
func parseTimeToSeconds(tm string) float64 {
	tm = strings.TrimSpace(tm)
	if len(tm) < 4 {
		return 0
	}
	hh, err := strconv.ParseFloat(tm[0:2], 64)
	if err != nil {
		return 0
	}
	mm, err := strconv.ParseFloat(tm[2:4], 64)
	if err != nil {
		return 0
	}
	var ss float64
	if len(tm) > 4 {
		if v, err := strconv.ParseFloat(tm[4:], 64); err == nil {
			ss = v
		}
	}
	return hh*3600 + mm*60 + ss
}
