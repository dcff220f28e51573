package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pageforge/internal/session"
	"pageforge/internal/types"
	"pageforge/pkg/logger"
	"pageforge/web"
)

// Handler holds dependencies for the API endpoints.
type Handler struct {
	ctrl *session.Controller
}

// NewHandler initializes the API handler with its dependencies.
func NewHandler(ctrl *session.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// Index serves the embedded browser shell.
func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

// Generate runs one generation and relays its progress as server-sent events.
//
// POST /api/generate
//
// Rejections (blank prompt, generation already in flight) come back as plain
// JSON errors before any event is written; once the controller accepts the
// request the response is an SSE stream ending in [DONE].
func (h *Handler) Generate(c *gin.Context) {
	var req types.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	// The writer is created lazily on the first event: the controller emits
	// nothing for rejected calls, so rejections can still use JSON status
	// responses.
	var w *EventWriter
	err := h.ctrl.Start(c.Request.Context(), req.Prompt, func(ev session.Event) {
		if w == nil {
			w = NewEventWriter(c.Writer)
		}
		if werr := w.WriteEvent(eventName(ev), ev); werr != nil {
			// A gone client cannot be recovered; the generation still runs
			// to completion so the in-flight guard clears cleanly.
			logger.Warnf("failed to relay %s event: %v", eventName(ev), werr)
		}
	})

	switch {
	case errors.Is(err, session.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt must not be empty"})
		return
	case errors.Is(err, session.ErrGenerationInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "A generation is already in progress"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start generation"})
		return
	}

	if w != nil {
		if cerr := w.Close(); cerr != nil {
			logger.Warnf("failed to close event stream: %v", cerr)
		}
	}
}

// eventName maps a controller event onto the relay's event vocabulary.
func eventName(ev session.Event) string {
	switch ev.Phase {
	case session.PhaseSettled:
		return "settled"
	case session.PhaseFailed:
		return "error"
	case session.PhaseStreaming:
		if ev.Partial != "" {
			return "snapshot"
		}
		return "state"
	default:
		return "state"
	}
}
