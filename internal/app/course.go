package app

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/Guilhem-Bonnet/course-player/internal/ports"
	"github.com/rs/zerolog"
)

// MediaPrefix est le préfixe HTTP sous lequel les fichiers du cours sont servis.
const MediaPrefix = "/media/"

// CourseService détient le snapshot courant du cours.
// Les lecteurs ne prennent aucun verrou ; Rescan remplace le snapshot d'un bloc.
type CourseService struct {
	logger  zerolog.Logger
	scanner *Scanner
	bus     ports.EventBus

	current atomic.Pointer[domain.Course]
	// scanMu évite deux scans simultanés.
	scanMu sync.Mutex
}

func NewCourseService(logger zerolog.Logger, scanner *Scanner, bus ports.EventBus) *CourseService {
	return &CourseService{logger: logger, scanner: scanner, bus: bus}
}

// Rescan reconstruit le snapshot. En cas d'échec, l'ancien snapshot reste en place.
func (s *CourseService) Rescan(ctx context.Context) (*domain.Course, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	start := time.Now()
	course, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, &CodedError{Code: CodeScanFailed, Message: "course scan failed", Err: err}
	}
	for _, w := range course.Warnings {
		s.logger.Warn().Str("path", w.Path).Str("reason", w.Reason).Msg("scan warning")
	}
	s.logger.Info().
		Str("scan_id", course.ScanID).
		Int("sections", len(course.Sections)).
		Int("videos", course.VideoCount()).
		Int("subtitles", course.SubtitleCount()).
		Int("warnings", len(course.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("course scanned")

	c := &course
	s.current.Store(c)
	s.publish(c)
	return c, nil
}

// Current renvoie le dernier snapshot, ou nil si aucun scan n'a abouti.
func (s *CourseService) Current() *domain.Course {
	return s.current.Load()
}

func (s *CourseService) HasVideo(id string) bool {
	c := s.current.Load()
	return c != nil && c.HasVideo(id)
}

type rescanEvent struct {
	ScanID   string `json:"scanId"`
	Sections int    `json:"sections"`
	Videos   int    `json:"videos"`
	Warnings int    `json:"warnings"`
}

func (s *CourseService) publish(c *domain.Course) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(rescanEvent{ScanID: c.ScanID, Sections: len(c.Sections), Videos: c.VideoCount(), Warnings: len(c.Warnings)})
	if err != nil {
		return
	}
	s.bus.Publish(ports.TopicCourseRescanned, b)
}

type CourseDTO struct {
	Title     string           `json:"title"`
	ScanID    string           `json:"scanId"`
	ScannedAt time.Time        `json:"scannedAt"`
	Sections  []SectionDTO     `json:"sections"`
	Warnings  []ScanWarningDTO `json:"warnings"`
}

type SectionDTO struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Videos    []VideoDTO    `json:"videos"`
	Resources []ResourceDTO `json:"resources"`
}

type VideoDTO struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	URL      string       `json:"url"`
	Subtitle *SubtitleDTO `json:"subtitle"`
	Watched  bool         `json:"watched"`
}

type SubtitleDTO struct {
	Path   string                `json:"path"`
	Format domain.SubtitleFormat `json:"format"`
	// URL sert toujours du WebVTT (.srt converti côté serveur).
	URL string `json:"url"`
}

type ResourceDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type ScanWarningDTO struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ToCourseDTO joint le snapshot et l'état "vu" de chaque vidéo.
func ToCourseDTO(c *domain.Course, progress domain.ProgressRecord) CourseDTO {
	watched := make(map[string]struct{}, len(progress.Watched))
	for _, id := range progress.Watched {
		watched[id] = struct{}{}
	}

	out := CourseDTO{
		Title:     c.Title,
		ScanID:    c.ScanID,
		ScannedAt: c.ScannedAt,
		Sections:  make([]SectionDTO, 0, len(c.Sections)),
		Warnings:  make([]ScanWarningDTO, 0, len(c.Warnings)),
	}
	for _, s := range c.Sections {
		sd := SectionDTO{
			ID:        s.ID,
			Title:     s.Title,
			Videos:    make([]VideoDTO, 0, len(s.Videos)),
			Resources: make([]ResourceDTO, 0, len(s.Resources)),
		}
		for _, v := range s.Videos {
			_, seen := watched[v.ID]
			vd := VideoDTO{ID: v.ID, Title: v.Title, URL: MediaURL(v.ID), Watched: seen}
			if v.Subtitle != nil {
				vd.Subtitle = &SubtitleDTO{Path: v.Subtitle.Path, Format: v.Subtitle.Format, URL: MediaURL(v.Subtitle.Path)}
			}
			sd.Videos = append(sd.Videos, vd)
		}
		for _, r := range s.Resources {
			sd.Resources = append(sd.Resources, ResourceDTO{ID: r.ID, Name: r.DisplayName, URL: MediaURL(r.ID)})
		}
		out.Sections = append(out.Sections, sd)
	}
	for _, w := range c.Warnings {
		out.Warnings = append(out.Warnings, ScanWarningDTO{Path: w.Path, Reason: w.Reason})
	}
	return out
}

// MediaURL encode un chemin relatif en URL servie par le handler média ("#", "?", espaces...).
func MediaURL(rel string) string {
	u := url.URL{Path: MediaPrefix + rel}
	return u.EscapedPath()
}
