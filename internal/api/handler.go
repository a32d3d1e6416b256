// Package api exposes the engine's query surface over HTTP.
//
// All read endpoints operate on immutable snapshots, so they are safe to
// serve concurrently with ingestion.
package api

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"coroviz/internal/eventprocessor"
	"coroviz/internal/projection"
	"coroviz/internal/session"
	"coroviz/internal/wire"
)

// Handler handles HTTP requests.
type Handler struct {
	sessions  *session.Manager
	processor *eventprocessor.Processor
}

// NewHandler creates a new handler.
func NewHandler(sessions *session.Manager, processor *eventprocessor.Processor) *Handler {
	return &Handler{
		sessions:  sessions,
		processor: processor,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/sessions", h.ListSessions)
	e.GET("/v1/sessions/:session_id/tree", h.GetTree)
	e.GET("/v1/sessions/:session_id/stats", h.GetStats)
	e.GET("/v1/sessions/:session_id/coroutines/:coroutine_id/relations", h.GetRelations)
	e.GET("/v1/sessions/:session_id/coroutines/:coroutine_id/timeline", h.GetTimeline)
	e.POST("/v1/sessions/:session_id/events", h.IngestEvents)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	ID         string `json:"id"`
	Coroutines int    `json:"coroutines"`
	Events     int    `json:"events"`
}

// ListSessions returns a summary of every live session.
func (h *Handler) ListSessions(c echo.Context) error {
	summaries := []SessionSummary{}
	for _, id := range h.sessions.IDs() {
		sess := h.sessions.Get(id)
		if sess == nil {
			continue
		}
		summaries = append(summaries, SessionSummary{
			ID:         id,
			Coroutines: len(sess.Snapshot()),
			Events:     sess.EventCount(),
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetTree returns the session's coroutine forest.
func (h *Handler) GetTree(c echo.Context) error {
	sess := h.sessions.Get(c.Param("session_id"))
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown session"})
	}
	return c.JSON(http.StatusOK, projection.ToTree(sess.Snapshot()))
}

// GetStats returns aggregate counts for the session.
func (h *Handler) GetStats(c echo.Context) error {
	sess := h.sessions.Get(c.Param("session_id"))
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown session"})
	}
	return c.JSON(http.StatusOK, projection.ComputeStats(sess.Snapshot()))
}

// GetRelations returns parent, children and siblings of one coroutine.
func (h *Handler) GetRelations(c echo.Context) error {
	sess := h.sessions.Get(c.Param("session_id"))
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown session"})
	}
	rel := projection.Relations(sess.Snapshot(), c.Param("coroutine_id"))
	if rel == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown coroutine"})
	}
	return c.JSON(http.StatusOK, rel)
}

// GetTimeline returns one coroutine's reconstructed timing summary.
func (h *Handler) GetTimeline(c echo.Context) error {
	sess := h.sessions.Get(c.Param("session_id"))
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown session"})
	}
	return c.JSON(http.StatusOK, sess.Timeline(c.Param("coroutine_id")))
}

// IngestEvents accepts a JSON array of raw records for one session. The
// session id from the path overrides whatever the records carry, keeping
// sessions isolated per route.
func (h *Handler) IngestEvents(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "reading body"})
	}

	var records []*wire.Record
	if err := sonic.Unmarshal(body, &records); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "expected a JSON array of records"})
	}

	sessionID := c.Param("session_id")
	accepted := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		rec.SessionID = sessionID
		wire.Normalize(rec)
		if err := h.processor.HandleRecord(rec); err == nil {
			accepted++
		}
	}
	return c.JSON(http.StatusAccepted, map[string]int{"accepted": accepted})
}
