package viewer

import (
	"log/slog"
	"sync"
	"time"
)

// PlaybackController advances a frame cursor on a fixed-rate timer while
// playing. Each tick wraps at the end of the series; a tick with no frames
// is a no-op. Speed changes take effect on the next tick. One timer per
// controller instance.
type PlaybackController struct {
	mu      sync.Mutex
	speed   float64
	playing bool
	stop    chan struct{}
	logger  *slog.Logger

	advance    func()
	frameCount func() int
}

// NewPlaybackController wires the controller to its owner: advance moves
// the cursor one frame forward (with wrap), frameCount reports the current
// series length.
func NewPlaybackController(speed float64, advance func(), frameCount func() int, logger *slog.Logger) *PlaybackController {
	if speed <= 0 {
		speed = DefaultPlaySpeed
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackController{
		speed:      speed,
		logger:     logger.With("component", "playback"),
		advance:    advance,
		frameCount: frameCount,
	}
}

func (p *PlaybackController) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *PlaybackController) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// SetSpeed updates the tick period. While playing, the new period applies
// from the next tick; no stale period survives beyond one.
func (p *PlaybackController) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	p.mu.Lock()
	p.speed = speed
	p.mu.Unlock()
}

// Start transitions Stopped → Playing. Starting twice is a no-op.
func (p *PlaybackController) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.playing = true
	p.stop = make(chan struct{})
	go p.loop(p.stop)
	p.logger.Debug("playback started", "speed", p.speed)
}

// Stop transitions Playing → Stopped and cancels the timer.
func (p *PlaybackController) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.playing = false
	close(p.stop)
	p.stop = nil
	p.logger.Debug("playback stopped")
}

func (p *PlaybackController) loop(stop chan struct{}) {
	timer := time.NewTimer(p.period())
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			if p.frameCount() > 0 {
				p.advance()
			}
			timer.Reset(p.period())
		}
	}
}

func (p *PlaybackController) period() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(float64(time.Second) / p.speed)
}
