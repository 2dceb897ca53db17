package viewer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/eleven-am/dicom-viewer/internal/dto"
)

// ErrSuperseded reports that a newer composite was issued for the same
// canvas before this one could draw. It is not a failure: the newer result
// is the one that must persist.
var ErrSuperseded = errors.New("composite superseded by a newer request")

// DecodeError wraps a malformed or undecodable frame payload. It is scoped
// to one canvas and must never affect sibling cells.
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Compositor decodes frame payloads and draws them onto canvases: uniform
// aspect-fit scale, centered with black letterboxing, optional window/level
// read-back over the covered region only.
type Compositor struct {
	logger *slog.Logger
}

func NewCompositor(logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{logger: logger.With("component", "compositor")}
}

// DecodeFrame decodes a base64 PNG payload, bare or wrapped in a data URI.
func DecodeFrame(payload string) (image.Image, error) {
	if idx := strings.Index(payload, ";base64,"); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return img, nil
}

// fitRect computes the centered destination rectangle for an iw×ih image
// scaled uniformly to fit a cw×ch canvas.
func fitRect(cw, ch, iw, ih int) image.Rectangle {
	if iw <= 0 || ih <= 0 {
		return image.Rectangle{}
	}
	scale := float64(cw) / float64(iw)
	if s := float64(ch) / float64(ih); s < scale {
		scale = s
	}
	w := int(float64(iw) * scale)
	h := int(float64(ih) * scale)
	x := (cw - w) / 2
	y := (ch - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// Composite decodes frame and draws it onto canvas, applying wl to the
// drawn region when non-nil. The issuance token is taken before the decode
// starts; if a newer request for the same canvas is issued while this one
// is decoding, the stale completion is discarded and ErrSuperseded is
// returned. On decode failure the canvas is left untouched. The decoded
// bitmap is returned so callers can re-composite on resize without
// re-decoding.
func (cp *Compositor) Composite(ctx context.Context, c *Canvas, frame dto.Frame, wl *WindowLevel) (image.Image, error) {
	token := c.beginComposite()

	img, err := DecodeFrame(frame.Data)
	if err != nil {
		return nil, &DecodeError{Index: frame.Index, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := cp.blit(c, token, img, wl); err != nil {
		return nil, err
	}
	return img, nil
}

// CompositeBitmap draws an already-decoded bitmap, issuing a fresh token.
// Used for resize redraws where the source payload is not re-decoded.
func (cp *Compositor) CompositeBitmap(c *Canvas, img image.Image, wl *WindowLevel) error {
	return cp.blit(c, c.beginComposite(), img, wl)
}

func (cp *Compositor) blit(c *Canvas, token uint64, img image.Image, wl *WindowLevel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current(token) {
		cp.logger.Debug("discarding stale composite", "token", token)
		return ErrSuperseded
	}

	dst := c.img
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(color.Black), image.Point{}, draw.Src)

	r := fitRect(bounds.Dx(), bounds.Dy(), img.Bounds().Dx(), img.Bounds().Dy())
	if r.Empty() {
		return nil
	}
	xdraw.ApproxBiLinear.Scale(dst, r.Add(bounds.Min), img, img.Bounds(), xdraw.Src, nil)

	if wl != nil {
		windowRegion(dst, r.Add(bounds.Min), *wl)
	}
	return nil
}
