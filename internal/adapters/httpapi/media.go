package httpapi

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/course-player/internal/app"
	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/Guilhem-Bonnet/course-player/internal/httpjson"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

// Types absents ou incorrects dans certaines tables mime système.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".vtt":  "text/vtt; charset=utf-8",
}

// MediaHandler sert les fichiers du cours par leur id (chemin relatif).
// Les .srt sont servis convertis en WebVTT.
type MediaHandler struct {
	fsys      fs.FS
	subtitles *app.SubtitleCache
}

func NewMediaHandler(fsys fs.FS, subtitles *app.SubtitleCache) *MediaHandler {
	return &MediaHandler{fsys: fsys, subtitles: subtitles}
}

func (h *MediaHandler) Routes(r chi.Router) {
	r.Get(app.MediaPrefix+"*", h.serve)
	r.Head(app.MediaPrefix+"*", h.serve)
}

func (h *MediaHandler) serve(w http.ResponseWriter, r *http.Request) {
	// r.URL.Path est déjà décodé ("%20", "%23"...).
	rel, ok := mediaPath(r.URL.Path)
	if !ok {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid path")
		return
	}

	if h.subtitles != nil && strings.EqualFold(path.Ext(rel), ".srt") {
		target, err := h.subtitles.VTT(r.Context(), rel)
		if err == nil {
			h.serveFile(w, r, target)
			return
		}
		if !errors.Is(err, fs.ErrNotExist) {
			hlog.FromRequest(r).Warn().Err(err).Str("subtitle", rel).Msg("srt conversion failed")
		}
		// Fichier brut en repli.
	}

	f, err := h.fsys.Open(rel)
	if err != nil {
		writeFSError(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeFSError(w, err)
		return
	}
	if info.IsDir() {
		httpjson.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	rs, ok := f.(io.ReadSeeker)
	if !ok {
		httpjson.WriteError(w, http.StatusInternalServerError, "file is not seekable")
		return
	}
	setMediaType(w, rel)
	http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
}

func (h *MediaHandler) serveFile(w http.ResponseWriter, r *http.Request, diskPath string) {
	f, err := os.Open(diskPath)
	if err != nil {
		writeFSError(w, err)
		return
	}
	defer f.Close()
	modTime := time.Time{}
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}
	w.Header().Set("Content-Type", mediaTypes[".vtt"])
	http.ServeContent(w, r, path.Base(diskPath), modTime, f)
}

// mediaPath extrait l'id du chemin d'URL. Les chemins qui sortent de la racine
// ("..") ou visent un fichier caché sont refusés.
func mediaPath(urlPath string) (string, bool) {
	rel := strings.TrimPrefix(urlPath, app.MediaPrefix)
	rel = domain.NormalizeVideoID(rel)
	if rel == "" || !fs.ValidPath(rel) {
		return "", false
	}
	for _, part := range strings.Split(rel, "/") {
		if domain.IsHidden(part) {
			return "", false
		}
	}
	return rel, true
}

func setMediaType(w http.ResponseWriter, rel string) {
	if ct, ok := mediaTypes[strings.ToLower(path.Ext(rel))]; ok {
		w.Header().Set("Content-Type", ct)
	}
}

func writeFSError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		httpjson.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, fs.ErrPermission):
		httpjson.WriteError(w, http.StatusForbidden, "forbidden")
	default:
		httpjson.WriteError(w, http.StatusInternalServerError, "read failed")
	}
}
