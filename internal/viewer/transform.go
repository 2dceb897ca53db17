package viewer

import (
	"image"
	"math"
)

// minWindowWidth guards the window divide. A width of zero would otherwise
// collapse the linear ramp into a division by zero.
const minWindowWidth = 1e-6

// WindowLevel is the radiology brightness/contrast pair: Width sets the
// contrast range, Level the center intensity.
type WindowLevel struct {
	Width float64 `json:"windowWidth"`
	Level float64 `json:"windowLevel"`
}

// DefaultWindowLevel is what ResetView restores.
var DefaultWindowLevel = WindowLevel{Width: 400, Level: 50}

// ApplyWindowLevel remaps 8-bit grayscale samples packed as RGBA in place.
// Samples at or below level-width/2 go to 0, samples at or above
// level+width/2 go to 255, and everything between is scaled linearly. The
// red channel is taken as the gray value and the result is written to all
// three color channels; alpha passes through. The mapping is lossy: values
// outside the window are clipped, so applying it twice is not a round trip.
func ApplyWindowLevel(pix []uint8, wl WindowLevel) {
	width := wl.Width
	if width < minWindowWidth {
		width = minWindowWidth
	}
	windowMin := wl.Level - width/2
	windowMax := wl.Level + width/2
	scale := 255 / (windowMax - windowMin)

	for i := 0; i+3 < len(pix); i += 4 {
		gray := float64(pix[i])
		var out uint8
		switch {
		case gray <= windowMin:
			out = 0
		case gray >= windowMax:
			out = 255
		default:
			out = uint8(math.Round((gray - windowMin) * scale))
		}
		pix[i] = out
		pix[i+1] = out
		pix[i+2] = out
	}
}

// windowRegion applies the transform to one rectangle of an RGBA image,
// row by row so letterboxed pixels outside r stay untouched.
func windowRegion(img *image.RGBA, r image.Rectangle, wl WindowLevel) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		start := img.PixOffset(r.Min.X, y)
		end := img.PixOffset(r.Max.X, y)
		ApplyWindowLevel(img.Pix[start:end], wl)
	}
}
