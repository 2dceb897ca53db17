// Package ingest validates uploaded ZIP archives and expands their entries
// for DICOM parsing.
package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/eleven-am/dicom-viewer/internal/dicom"
)

// Upload is one file received on the upload endpoint.
type Upload struct {
	Name string
	Data []byte
}

// Classify splits uploads into valid ZIP blobs and rejection reasons. The
// reasons mirror what the upload response reports per file: not a ZIP,
// empty, or corrupt.
func Classify(uploads []Upload) (valid []Upload, invalid []string) {
	for _, u := range uploads {
		if !strings.HasSuffix(strings.ToLower(u.Name), ".zip") {
			invalid = append(invalid, fmt.Sprintf("%s (not a ZIP file)", u.Name))
			continue
		}
		if len(u.Data) == 0 {
			invalid = append(invalid, fmt.Sprintf("%s (empty file)", u.Name))
			continue
		}
		if _, err := zip.NewReader(bytes.NewReader(u.Data), int64(len(u.Data))); err != nil {
			invalid = append(invalid, fmt.Sprintf("%s (invalid ZIP file)", u.Name))
			continue
		}
		valid = append(valid, u)
	}
	return valid, invalid
}

// Expand reads every regular entry out of a ZIP blob.
func Expand(data []byte) ([]dicom.File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var files []dicom.File
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", entry.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name, err)
		}
		files = append(files, dicom.File{Name: entry.Name, Data: content})
	}
	return files, nil
}

// ExpandAll flattens every valid ZIP into one file list.
func ExpandAll(uploads []Upload) ([]dicom.File, error) {
	var files []dicom.File
	for _, u := range uploads {
		entries, err := Expand(u.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.Name, err)
		}
		files = append(files, entries...)
	}
	return files, nil
}
