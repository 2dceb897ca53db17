// Package gateway serves the cine websocket: a server-driven playback loop
// that pushes series frames at the client's requested speed.
package gateway

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/eleven-am/dicom-viewer/internal/session"
	"github.com/eleven-am/dicom-viewer/internal/shared"
)

type Handler struct {
	store  *session.Store
	logger *slog.Logger
}

func NewHandler(store *session.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/stream/:session_id/:series_uid", h.Stream)
}

// @Summary      Cine stream
// @Description  Upgrades to a websocket and streams frames under playback control
// @Tags         stream
// @Router       /api/stream/{session_id}/{series_uid} [get]
func (h *Handler) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")
	uid := c.Param("series_uid")

	if _, err := h.store.GetSession(ctx, sessionID); err != nil {
		return shared.NotFound("session_not_found", "Session not found")
	}

	frames, err := h.store.GetFrames(ctx, sessionID, uid)
	if err != nil {
		return shared.NotFound("series_not_found", "Series not found")
	}
	if len(frames) == 0 {
		return shared.NotFound("no_frames", "Series has no frames")
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	logger := h.logger.With("session_id", sessionID, "series_uid", uid)
	logger.Info("cine stream opened", "frames", len(frames))

	conn := newCineConn(ws, frames, logger)
	conn.run()

	logger.Info("cine stream closed")
	return nil
}
