package main

import (
	"github.com/eleven-am/dicom-viewer/internal/bootstrap"
)

// @title DICOM Viewer API
// @version 1.0.0
// @description Upload ZIPs of DICOM files, browse series, and stream frames

// @host localhost:8116
// @BasePath /api

func main() {
	bootstrap.Run()
}
