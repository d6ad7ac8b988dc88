package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Guilhem-Bonnet/course-player/internal/app"
	"github.com/Guilhem-Bonnet/course-player/internal/buildinfo"
	"github.com/Guilhem-Bonnet/course-player/internal/httpjson"
	"github.com/rs/zerolog/hlog"
)

const (
	defaultRequestTimeout = 30 * time.Second
	// Les corps de requête sont de petits objets JSON.
	maxBodyBytes = 64 << 10
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}

// decodeJSON accepte un corps vide comme "{}".
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		httpjson.WriteCodedError(w, http.StatusBadRequest, app.CodeInvalidParams, "invalid json")
		return false
	}
	return true
}

// writeAppError traduit les erreurs applicatives en statut HTTP.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := app.ErrorCode(err)
	switch {
	case errors.Is(err, app.ErrInvalidArgument):
		httpjson.WriteCodedError(w, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, app.ErrNotFound):
		httpjson.WriteCodedError(w, http.StatusNotFound, code, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Str("code", code).Msg("request failed")
		httpjson.WriteCodedError(w, http.StatusInternalServerError, code, err.Error())
	}
}
