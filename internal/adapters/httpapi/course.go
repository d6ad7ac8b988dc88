package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/course-player/internal/app"
	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/Guilhem-Bonnet/course-player/internal/httpjson"
	"github.com/go-chi/chi/v5"
)

type CourseHandler struct {
	course *app.CourseService
	sync   *app.SyncService
}

func NewCourseHandler(course *app.CourseService, sync *app.SyncService) *CourseHandler {
	return &CourseHandler{course: course, sync: sync}
}

func (h *CourseHandler) Routes(r chi.Router) {
	r.Get("/course", h.get)
	r.Post("/course/rescan", h.rescan)
}

func (h *CourseHandler) get(w http.ResponseWriter, r *http.Request) {
	c := h.course.Current()
	if c == nil {
		httpjson.WriteCodedError(w, http.StatusServiceUnavailable, app.CodeScanFailed, "course not scanned")
		return
	}
	h.write(w, r, c)
}

func (h *CourseHandler) rescan(w http.ResponseWriter, r *http.Request) {
	c, err := h.course.Rescan(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.write(w, r, c)
}

func (h *CourseHandler) write(w http.ResponseWriter, r *http.Request, c *domain.Course) {
	progress := domain.EmptyProgress()
	if h.sync != nil {
		p, err := h.sync.Record(r.Context())
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		progress = p
	}
	httpjson.Write(w, http.StatusOK, app.ToCourseDTO(c, progress))
}
