package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/course-player/internal/app"
	"github.com/Guilhem-Bonnet/course-player/internal/httpjson"
	"github.com/go-chi/chi/v5"
)

type ProgressHandler struct {
	sync *app.SyncService
}

func NewProgressHandler(sync *app.SyncService) *ProgressHandler {
	return &ProgressHandler{sync: sync}
}

func (h *ProgressHandler) Routes(r chi.Router) {
	r.Get("/progress", h.get)
	r.Post("/progress/watch", h.watch)
	r.Post("/progress/resume", h.resume)
	r.Post("/progress/reset", h.reset)

	// Anciennes routes, encore appelées par le lecteur HTML.
	r.Post("/mark_watched", h.legacyMark)
	r.Post("/toggle_watched", h.legacyToggle)
	r.Post("/reset_progress", h.legacyReset)
}

type watchRequest struct {
	VideoID string `json:"videoId"`
	// Absent = true.
	Watched *bool `json:"watched"`
}

type resumeRequest struct {
	VideoID     string   `json:"videoId"`
	TimeSeconds *float64 `json:"timeSeconds"`
}

type legacyRequest struct {
	Path string `json:"path"`
}

type legacyResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Watched *bool  `json:"watched,omitempty"`
}

func (h *ProgressHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.sync.Get(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *ProgressHandler) watch(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	watched := req.Watched == nil || *req.Watched
	p, err := h.sync.SetWatched(r.Context(), req.VideoID, watched)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *ProgressHandler) resume(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TimeSeconds == nil {
		httpjson.WriteCodedError(w, http.StatusBadRequest, app.CodeInvalidParams, "missing timeSeconds")
		return
	}
	p, err := h.sync.UpdateResume(r.Context(), req.VideoID, *req.TimeSeconds)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *ProgressHandler) reset(w http.ResponseWriter, r *http.Request) {
	p, err := h.sync.ResetAll(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (h *ProgressHandler) legacyMark(w http.ResponseWriter, r *http.Request) {
	var req legacyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.sync.MarkWatched(r.Context(), req.Path); err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, legacyResponse{Success: true, Path: req.Path})
}

func (h *ProgressHandler) legacyToggle(w http.ResponseWriter, r *http.Request) {
	var req legacyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	_, watched, err := h.sync.ToggleWatched(r.Context(), req.Path)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, legacyResponse{Success: true, Path: req.Path, Watched: &watched})
}

func (h *ProgressHandler) legacyReset(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sync.ResetAll(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, legacyResponse{Success: true})
}
