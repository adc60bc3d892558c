package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/collab-notes/internal/middleware"
	"github.com/iliyamo/collab-notes/internal/policy"
	"github.com/iliyamo/collab-notes/internal/repository"
	"github.com/iliyamo/collab-notes/internal/service"
)

// NoteHandler exposes the note CRUD and share endpoints on top of the
// NoteService.  All routes sit behind AuthGate, so an identity is always
// present on the context.
type NoteHandler struct {
	Notes *service.NoteService
}

func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{Notes: notes}
}

type createNoteReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
type shareNoteReq struct {
	UserID uint64 `json:"userId"`
}

// Create handles POST /v1/notes.
func (h *NoteHandler) Create(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createNoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and content required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	n, err := h.Notes.Create(ctx, ident.ID, req.Title, req.Content)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create note"})
	}
	return c.JSON(http.StatusOK, n)
}

// List handles GET /v1/notes.
func (h *NoteHandler) List(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	notes, err := h.Notes.ListFor(ctx, ident.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, notes)
}

// Update handles PUT /v1/notes/:id.
func (h *NoteHandler) Update(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var patch service.NotePatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	n, err := h.Notes.Update(ctx, id, ident.ID, patch)
	if err != nil {
		return noteError(c, err, "could not update note")
	}
	return c.JSON(http.StatusOK, n)
}

// Delete handles DELETE /v1/notes/:id.  A non-owner attempt gets 422 with a
// sharper message than the generic forbidden so clients can tell "ask the
// owner" apart from "no access at all".
func (h *NoteHandler) Delete(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Notes.Delete(ctx, id, ident.ID); err != nil {
		return noteError(c, err, "could not delete note")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "note removed"})
}

// Share handles POST /v1/notes/:id/share.
func (h *NoteHandler) Share(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req shareNoteReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	n, err := h.Notes.Share(ctx, id, ident.ID, req.UserID)
	if err != nil {
		return noteError(c, err, "could not share note")
	}
	return c.JSON(http.StatusOK, n)
}

// noteError maps domain failures onto the response envelope.
func noteError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, repository.ErrNoteNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	case errors.Is(err, policy.ErrNotOwner):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "only the owner can delete this note"})
	case errors.Is(err, policy.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
	}
}

func noteID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
