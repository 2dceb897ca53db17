package dicom

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const photometricMonochrome1 = "MONOCHROME1"

// rawFrame is one normalized 8-bit grayscale slice before encoding.
type rawFrame struct {
	pix    []uint8
	width  int
	height int
}

// extractFrames pulls every native frame out of a dataset and normalizes
// each one independently to uint8. Datasets without pixel data yield an
// empty list, not an error.
func extractFrames(ds *dicom.Dataset) ([]rawFrame, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, nil
	}

	info := dicom.MustGetPixelDataInfo(el.Value)
	if info.IsEncapsulated {
		return nil, fmt.Errorf("encapsulated transfer syntax not supported")
	}

	invert := stringAttr(ds, tag.PhotometricInterpretation) == photometricMonochrome1

	frames := make([]rawFrame, 0, len(info.Frames))
	for _, fr := range info.Frames {
		native, err := fr.GetNativeFrame()
		if err != nil {
			return nil, fmt.Errorf("native frame: %w", err)
		}
		if native.Rows <= 0 || native.Cols <= 0 {
			continue
		}

		samples := make([]float64, len(native.Data))
		for i, px := range native.Data {
			if len(px) > 0 {
				samples[i] = float64(px[0])
			}
		}
		if invert {
			invertSamples(samples)
		}

		frames = append(frames, rawFrame{
			pix:    normalizeToUint8(samples, false, 0, 0),
			width:  native.Cols,
			height: native.Rows,
		})
	}
	return frames, nil
}

// encodeFrame packs a grayscale raster as a base64 PNG payload.
func encodeFrame(f rawFrame) (string, error) {
	img := &image.Gray{
		Pix:    f.pix,
		Stride: f.width,
		Rect:   image.Rect(0, 0, f.width, f.height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
