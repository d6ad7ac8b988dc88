package httpapi

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/course-player/internal/app"
	"github.com/Guilhem-Bonnet/course-player/internal/ports"
)

type Server struct {
	logger zerolog.Logger
	course *app.CourseService
	sync   *app.SyncService
	bus    ports.EventBus
	// media et subtitles sont optionnels : sans eux, /media n'est pas monté.
	media     fs.FS
	subtitles *app.SubtitleCache
}

func NewServer(logger zerolog.Logger, course *app.CourseService, sync *app.SyncService, bus ports.EventBus, media fs.FS, subtitles *app.SubtitleCache) *Server {
	return &Server{logger: logger, course: course, sync: sync, bus: bus, media: media, subtitles: subtitles}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))
	r.Use(corsHeaders)

	r.Route("/api", func(r chi.Router) {
		// SSE : connexion longue, hors timeout.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))

			r.Get("/health", s.handleHealth)
			r.Get("/version", s.handleVersion)
			r.Get("/openapi.json", s.handleOpenAPI)

			if s.course != nil {
				NewCourseHandler(s.course, s.sync).Routes(r)
			}
			if s.sync != nil {
				NewProgressHandler(s.sync).Routes(r)
			}
		})
	})

	if s.media != nil {
		NewMediaHandler(s.media, s.subtitles).Routes(r)
	}
	return r
}

// corsHeaders : usage local, un seul hôte de confiance.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Accept-Ranges", "bytes")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Range")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
