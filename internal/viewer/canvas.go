package viewer

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
)

// Canvas is an in-memory render target. Composite requests against one
// canvas are serialized by its mutex; the generation counter implements
// last-issued-wins for requests that overlap in flight (see Compositor).
type Canvas struct {
	mu  sync.Mutex
	img *image.RGBA
	gen atomic.Uint64
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize replaces the backing image and invalidates every in-flight
// composite for this canvas.
func (c *Canvas) Resize(width, height int) {
	c.gen.Add(1)
	c.mu.Lock()
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.mu.Unlock()
}

// Clear fills the canvas with black and invalidates in-flight composites.
func (c *Canvas) Clear() {
	c.gen.Add(1)
	c.mu.Lock()
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	c.mu.Unlock()
}

// Snapshot returns a copy of the current pixels.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	dst := image.NewRGBA(c.img.Bounds())
	copy(dst.Pix, c.img.Pix)
	return dst
}

// At reports the pixel at (x, y); test hook.
func (c *Canvas) At(x, y int) color.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img.At(x, y)
}

// beginComposite issues a new generation token. A completion may only write
// if its token is still current when the write begins.
func (c *Canvas) beginComposite() uint64 {
	return c.gen.Add(1)
}

func (c *Canvas) current(token uint64) bool {
	return c.gen.Load() == token
}
