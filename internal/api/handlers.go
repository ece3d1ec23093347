package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/timemachine/internal/apperr"
	"github.com/starford/timemachine/internal/storage"
	"github.com/starford/timemachine/internal/timemachine"
)

// Reporter runs the time machine.
type Reporter interface {
	Run(ctx context.Context) (*timemachine.Report, error)
	RunAt(ctx context.Context, now time.Time) (*timemachine.Report, error)
	Horizons() []timemachine.HorizonStatus
	Config() timemachine.Config
}

// Handler holds API route handlers.
type Handler struct {
	svc      Reporter
	store    storage.Provider
	property string
}

// NewHandler creates a new Handler. property names the frontmatter date field
// used when opening notes.
func NewHandler(svc Reporter, store storage.Provider, property string) *Handler {
	return &Handler{svc: svc, store: store, property: property}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. journal%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// TimeMachine handles GET /api/timemachine.
//
//	@Summary		Run the time machine
//	@Tags			timemachine
//	@Produce		json
//	@Param			at	query		string	false	"Reference date (YYYY-MM-DD), defaults to now"
//	@Success		200	{object}	ReportResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timemachine [get]
func (h *Handler) TimeMachine(w http.ResponseWriter, r *http.Request) {
	var (
		report *timemachine.Report
		err    error
	)
	if at := r.URL.Query().Get("at"); at != "" {
		ref, perr := time.ParseInLocation("2006-01-02", at, time.Local)
		if perr != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("at must be YYYY-MM-DD"))
			return
		}
		report, err = h.svc.RunAt(r.Context(), ref)
	} else {
		report, err = h.svc.Run(r.Context())
	}
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidConfiguration) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
			return
		}
		slog.Error("time machine run failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Horizons handles GET /api/horizons.
//
//	@Summary		List the horizon catalog
//	@Tags			timemachine
//	@Produce		json
//	@Success		200	{object}	HorizonsResponse
//	@Security		BearerAuth
//	@Router			/horizons [get]
func (h *Handler) Horizons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HorizonsResponse{
		Horizons: h.svc.Horizons(),
		Capacity: h.svc.Config().Capacity,
	})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Open a note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := timemachine.ReadNote(h.store, path, h.property)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}
