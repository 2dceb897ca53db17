package session

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eleven-am/dicom-viewer/internal/dicom"
	"github.com/eleven-am/dicom-viewer/internal/dto"
	"github.com/eleven-am/dicom-viewer/internal/ingest"
	"github.com/eleven-am/dicom-viewer/internal/shared"
)

type Handler struct {
	store   *Store
	archive *ArchiveStore
	logger  *slog.Logger
}

func NewHandler(store *Store, archive *ArchiveStore, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		archive: archive,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group, rateLimit echo.MiddlewareFunc) {
	g.POST("/upload", h.Upload, rateLimit)
	g.GET("/sessions", h.ListSessions)
	g.DELETE("/sessions/:session_id", h.DeleteSession)
	g.GET("/series/:session_id/:series_uid", h.GetSeries)
	g.GET("/series/:session_id/:series_uid/frame/:frame_index", h.GetFrame)
	g.GET("/archive", h.ListArchive)
}

// @Summary      Upload DICOM ZIPs
// @Description  Accepts one or more ZIP files, groups DICOM frames into series, and creates a session
// @Tags         sessions
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  dto.UploadResponse
// @Failure      400  {object}  shared.APIError
// @Router       /api/upload [post]
func (h *Handler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return shared.BadRequest("invalid_form", "expected multipart form upload")
	}

	parts := form.File["files"]
	if len(parts) == 0 {
		return shared.BadRequest("no_files", "no files provided")
	}

	uploads := make([]ingest.Upload, 0, len(parts))
	for _, part := range parts {
		src, err := part.Open()
		if err != nil {
			return shared.BadRequest("unreadable_file", "could not read "+part.Filename)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return shared.BadRequest("unreadable_file", "could not read "+part.Filename)
		}
		uploads = append(uploads, ingest.Upload{Name: part.Filename, Data: data})
	}

	valid, invalid := ingest.Classify(uploads)
	if len(valid) == 0 {
		return shared.BadRequest("no_valid_zips", "No valid ZIP files found")
	}

	files, err := ingest.ExpandAll(valid)
	if err != nil {
		h.logger.Error("zip expansion failed", "error", err)
		return shared.BadRequest("bad_archive", "failed to read ZIP contents")
	}

	start := time.Now()
	grouped := dicom.GroupBySeries(files, h.logger)
	h.logger.Info("processed upload",
		"files", len(files),
		"series", len(grouped),
		"invalid", len(invalid),
		"duration", time.Since(start))

	sess := &Session{InvalidFiles: invalid}
	for _, s := range grouped {
		sess.SeriesOrder = append(sess.SeriesOrder, s.UID)
	}
	if sess.InvalidFiles == nil {
		sess.InvalidFiles = []string{}
	}

	ctx := c.Request().Context()
	if err := h.store.CreateSession(ctx, sess); err != nil {
		h.logger.Error("create session failed", "error", err)
		return shared.InternalError("store_failed", "failed to create session")
	}

	infos := make([]dto.SeriesInfo, 0, len(grouped))
	for _, s := range grouped {
		info := s.Info()
		meta := &SeriesMeta{
			UID:         s.UID,
			SeriesDesc:  s.SeriesDesc,
			Modality:    s.Modality,
			PatientName: s.PatientName,
			PatientID:   s.PatientID,
			StudyDesc:   s.StudyDesc,
			FrameCount:  len(s.Frames),
			Examples:    info.Examples,
		}
		if err := h.store.PutSeries(ctx, sess.ID, meta, s.Frames); err != nil {
			h.logger.Error("store series failed", "session_id", sess.ID, "series_uid", s.UID, "error", err)
			return shared.InternalError("store_failed", "failed to store series")
		}

		if h.archive != nil {
			rec := &StudyRecord{
				SessionID:   sess.ID,
				SeriesUID:   s.UID,
				PatientName: s.PatientName,
				PatientID:   s.PatientID,
				StudyDesc:   s.StudyDesc,
				SeriesDesc:  s.SeriesDesc,
				Modality:    s.Modality,
				FrameCount:  len(s.Frames),
				Examples:    info.Examples,
			}
			if err := h.archive.Record(ctx, rec); err != nil {
				h.logger.Warn("archive record failed", "series_uid", s.UID, "error", err)
			}
		}

		infos = append(infos, info)
	}

	return c.JSON(http.StatusOK, dto.UploadResponse{
		SessionID:    sess.ID,
		Series:       infos,
		InvalidFiles: sess.InvalidFiles,
		TotalSeries:  len(infos),
	})
}

// @Summary      Get series frames
// @Description  Returns series metadata and every frame as base64 PNG
// @Tags         series
// @Produce      json
// @Success      200  {object}  dto.SeriesResponse
// @Failure      404  {object}  shared.APIError
// @Router       /api/series/{session_id}/{series_uid} [get]
func (h *Handler) GetSeries(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")
	uid := c.Param("series_uid")

	sess, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		return shared.NotFound("session_not_found", "Session not found")
	}

	meta, err := h.store.GetSeriesMeta(ctx, sessionID, uid)
	if err != nil {
		return shared.NotFound("series_not_found", "Series not found")
	}

	frames, err := h.store.GetFrames(ctx, sessionID, uid)
	if err != nil {
		h.logger.Error("frame fetch failed", "session_id", sessionID, "series_uid", uid, "error", err)
		return shared.InternalError("store_failed", "failed to load frames")
	}

	if err := h.store.Touch(ctx, sess); err != nil {
		h.logger.Warn("session touch failed", "session_id", sessionID, "error", err)
	}

	return c.JSON(http.StatusOK, dto.SeriesResponse{
		SeriesUID:   meta.UID,
		SeriesDesc:  meta.SeriesDesc,
		Modality:    meta.Modality,
		PatientName: meta.PatientName,
		PatientID:   meta.PatientID,
		StudyDesc:   meta.StudyDesc,
		FrameCount:  len(frames),
		Frames:      frames,
	})
}

// @Summary      Get one frame
// @Tags         series
// @Produce      json
// @Success      200  {object}  dto.FrameResponse
// @Failure      404  {object}  shared.APIError
// @Router       /api/series/{session_id}/{series_uid}/frame/{frame_index} [get]
func (h *Handler) GetFrame(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")
	uid := c.Param("series_uid")

	index, err := strconv.Atoi(c.Param("frame_index"))
	if err != nil {
		return shared.BadRequest("invalid_index", "frame index must be an integer")
	}

	if _, err := h.store.GetSession(ctx, sessionID); err != nil {
		return shared.NotFound("session_not_found", "Session not found")
	}

	frame, total, err := h.store.GetFrame(ctx, sessionID, uid, index)
	if errors.Is(err, shared.ErrOutOfRange) {
		return shared.NotFound("frame_out_of_range", "Frame index out of range")
	}
	if err != nil {
		return shared.NotFound("series_not_found", "Series not found")
	}

	return c.JSON(http.StatusOK, dto.FrameResponse{
		FrameIndex:  index,
		Data:        frame.Data,
		Width:       frame.Width,
		Height:      frame.Height,
		TotalFrames: total,
	})
}

// @Summary      List active sessions
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  dto.SessionsResponse
// @Router       /api/sessions [get]
func (h *Handler) ListSessions(c echo.Context) error {
	ids, err := h.store.ListSessions(c.Request().Context())
	if err != nil {
		h.logger.Error("list sessions failed", "error", err)
		return shared.InternalError("store_failed", "failed to list sessions")
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, dto.SessionsResponse{Sessions: ids, Count: len(ids)})
}

// @Summary      Delete a session
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  shared.APIError
// @Router       /api/sessions/{session_id} [delete]
func (h *Handler) DeleteSession(c echo.Context) error {
	err := h.store.DeleteSession(c.Request().Context(), c.Param("session_id"))
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("session_not_found", "Session not found")
	}
	if err != nil {
		h.logger.Error("delete session failed", "error", err)
		return shared.InternalError("store_failed", "failed to delete session")
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Session deleted successfully"})
}

// @Summary      List archived studies
// @Tags         archive
// @Produce      json
// @Success      200  {array}  dto.StudyRecordResponse
// @Router       /api/archive [get]
func (h *Handler) ListArchive(c echo.Context) error {
	if h.archive == nil {
		return c.JSON(http.StatusOK, []dto.StudyRecordResponse{})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	records, err := h.archive.ListRecent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("archive list failed", "error", err)
		return shared.InternalError("store_failed", "failed to list archive")
	}

	out := make([]dto.StudyRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, dto.StudyRecordResponse{
			SessionID:   rec.SessionID,
			SeriesUID:   rec.SeriesUID,
			PatientName: rec.PatientName,
			PatientID:   rec.PatientID,
			StudyDesc:   rec.StudyDesc,
			SeriesDesc:  rec.SeriesDesc,
			Modality:    rec.Modality,
			FrameCount:  rec.FrameCount,
			CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, out)
}
