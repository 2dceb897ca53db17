package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eleven-am/dicom-viewer/internal/dto"
	"github.com/eleven-am/dicom-viewer/internal/shared"
	"github.com/eleven-am/dicom-viewer/internal/viewer"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// cineConn streams one series over a websocket. A playback controller owns
// the timer; client commands start, stop, retime, and seek it. The socket
// lifetime bounds the controller's.
type cineConn struct {
	ws     *websocket.Conn
	logger *slog.Logger
	frames []dto.Frame

	mu    sync.Mutex
	index int

	playback *viewer.PlaybackController
	send     chan dto.StreamFrame
	done     chan struct{}
	once     sync.Once
}

func newCineConn(ws *websocket.Conn, frames []dto.Frame, logger *slog.Logger) *cineConn {
	c := &cineConn{
		ws:     ws,
		logger: logger,
		frames: frames,
		send:   make(chan dto.StreamFrame, 16),
		done:   make(chan struct{}),
	}
	c.playback = viewer.NewPlaybackController(
		viewer.DefaultPlaySpeed,
		c.advance,
		func() int { return len(c.frames) },
		logger,
	)
	return c
}

// advance is the playback tick: move one frame forward with wrap and queue
// it for the write pump. A full send buffer drops the tick rather than
// stalling the timer.
func (c *cineConn) advance() {
	c.mu.Lock()
	c.index = (c.index + 1) % len(c.frames)
	frame := c.streamFrameLocked()
	c.mu.Unlock()

	select {
	case c.send <- frame:
	default:
		c.logger.Debug("cine send buffer full, dropping frame", "frame_index", frame.FrameIndex)
	}
}

func (c *cineConn) streamFrameLocked() dto.StreamFrame {
	f := c.frames[c.index]
	return dto.StreamFrame{
		FrameIndex:  c.index,
		Data:        f.Data,
		Width:       f.Width,
		Height:      f.Height,
		TotalFrames: len(c.frames),
	}
}

func (c *cineConn) run() {
	go c.writePump()
	c.readPump()
}

func (c *cineConn) close() {
	c.once.Do(func() {
		c.playback.Stop()
		close(c.done)
		c.ws.Close()
	})
}

func (c *cineConn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var cmd dto.StreamCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			c.logger.Debug("ignoring malformed stream command", "error", err)
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *cineConn) handleCommand(cmd dto.StreamCommand) {
	switch cmd.Type {
	case "play":
		if cmd.Speed > 0 {
			c.playback.SetSpeed(cmd.Speed)
		}
		c.playback.Start()
	case "pause":
		c.playback.Stop()
	case "speed":
		c.playback.SetSpeed(cmd.Speed)
	case "seek":
		c.mu.Lock()
		c.index = shared.Clamp(cmd.Index, 0, len(c.frames)-1)
		frame := c.streamFrameLocked()
		c.mu.Unlock()
		select {
		case c.send <- frame:
		default:
		}
	default:
		c.logger.Debug("unknown stream command", "type", cmd.Type)
	}
}

func (c *cineConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
