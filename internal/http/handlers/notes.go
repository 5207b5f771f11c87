package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lecturenotes-backend/internal/domain/notes"
	"github.com/yungbote/lecturenotes-backend/internal/http/response"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/flow"
	"github.com/yungbote/lecturenotes-backend/internal/modules/notes/theme"
	"github.com/yungbote/lecturenotes-backend/internal/platform/ctxutil"
	"github.com/yungbote/lecturenotes-backend/internal/platform/logger"
)

type NotesHandler struct {
	log  *logger.Logger
	flow *flow.Controller
}

func NewNotesHandler(log *logger.Logger, ctrl *flow.Controller) *NotesHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &NotesHandler{log: log.With("handler", "NotesHandler"), flow: ctrl}
}

type submitSourceRequest struct {
	Source string `json:"source"`
}

type chooseModeRequest struct {
	Mode string `json:"mode"`
}

type setThemeRequest struct {
	Theme  string `json:"theme"`
	Toggle bool   `json:"toggle"`
}

// LogFields describes the session for request logs.
func (h *NotesHandler) LogFields() []interface{} {
	s := h.flow.Snapshot()
	fields := []interface{}{"notes_state", string(s.State), "notes_theme", string(s.Theme)}
	if s.Mode != "" {
		fields = append(fields, "notes_mode", string(s.Mode))
	}
	if s.Exporting {
		fields = append(fields, "notes_exporting", true)
	}
	return fields
}

// GET /api/notes
func (h *NotesHandler) GetSnapshot(c *gin.Context) {
	response.RespondOK(c, gin.H{"notes": h.flow.Snapshot()})
}

// POST /api/notes/source
func (h *NotesHandler) SubmitSource(c *gin.Context) {
	var req submitSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.flow.Submit(req.Source); err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notes": h.flow.Snapshot()})
}

// POST /api/notes/mode
func (h *NotesHandler) ChooseMode(c *gin.Context) {
	var req chooseModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	mode, ok := notes.ParseMode(req.Mode)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_mode", fmt.Errorf("mode must be %q or %q", notes.ModeDigital, notes.ModePhysical))
		return
	}
	// generation outlives the request
	ctx := context.WithoutCancel(c.Request.Context())
	if _, err := h.flow.ChooseMode(ctx, mode); err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("generation started", append([]interface{}{"mode", mode}, ctxutil.LogFields(ctx)...)...)
	response.RespondAccepted(c, gin.H{"notes": h.flow.Snapshot()})
}

// POST /api/notes/reset
func (h *NotesHandler) Reset(c *gin.Context) {
	if err := h.flow.Reset(); err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notes": h.flow.Snapshot()})
}

// PUT /api/notes/theme
func (h *NotesHandler) SetTheme(c *gin.Context) {
	var req setThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Toggle {
		response.RespondOK(c, gin.H{"theme": h.flow.ToggleTheme()})
		return
	}
	t, ok := theme.Parse(req.Theme)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_theme", fmt.Errorf("theme must be %q or %q", theme.Light, theme.Dark))
		return
	}
	if err := h.flow.SetTheme(t); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_theme", err)
		return
	}
	response.RespondOK(c, gin.H{"theme": t})
}

// GET /api/notes/view
func (h *NotesHandler) View(c *gin.Context) {
	tree, err := h.flow.View()
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"view": tree})
}

// GET /api/notes/export
func (h *NotesHandler) Export(c *gin.Context) {
	art, err := h.flow.Export(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.FileName}))
	c.Data(http.StatusOK, art.ContentType, art.Data)
}

func (h *NotesHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, flow.ErrBusy):
		response.RespondError(c, http.StatusConflict, "busy", err)
	case errors.Is(err, flow.ErrInvalidTransition):
		response.RespondError(c, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, flow.ErrEmptySource):
		response.RespondError(c, http.StatusBadRequest, "invalid_source", err)
	case errors.Is(err, flow.ErrUnknownMode):
		response.RespondError(c, http.StatusBadRequest, "invalid_mode", err)
	case errors.Is(err, flow.ErrNoExporter):
		response.RespondError(c, http.StatusServiceUnavailable, "export_unavailable", err)
	default:
		response.RespondAPIError(c, err)
	}
}
