package app

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/Guilhem-Bonnet/course-player/internal/ports"
	"github.com/rs/zerolog"
)

// VideoLookup indique si un id fait partie du cours courant.
type VideoLookup interface {
	HasVideo(id string) bool
}

// SyncService applique les événements du lecteur à la progression persistée.
//
// Toutes les mutations passent par mu, qui couvre le cycle complet
// load → modification → save : deux requêtes concurrentes ne peuvent pas perdre
// la mise à jour de l'autre. Les lectures renvoient le dernier état commité sans verrou.
type SyncService struct {
	logger zerolog.Logger
	repo   ports.ProgressRepository
	bus    ports.EventBus
	videos VideoLookup

	mu        sync.Mutex
	committed atomic.Pointer[domain.ProgressRecord]
}

func NewSyncService(logger zerolog.Logger, repo ports.ProgressRepository, bus ports.EventBus, videos VideoLookup) *SyncService {
	return &SyncService{logger: logger, repo: repo, bus: bus, videos: videos}
}

type ProgressDTO struct {
	Watched []string   `json:"watched"`
	Resume  *ResumeDTO `json:"resume,omitempty"`
}

type ResumeDTO struct {
	VideoID     string  `json:"videoId"`
	TimeSeconds float64 `json:"timeSeconds"`
}

func ToProgressDTO(p domain.ProgressRecord) ProgressDTO {
	out := ProgressDTO{Watched: make([]string, len(p.Watched))}
	copy(out.Watched, p.Watched)
	if p.Resume != nil {
		out.Resume = &ResumeDTO{VideoID: p.Resume.VideoID, TimeSeconds: p.Resume.TimeSeconds}
	}
	return out
}

// Init charge la progression persistée en mémoire. À appeler au démarrage.
// Un stockage illisible ne bloque pas le démarrage : l'état commité part vide
// et chaque mutation échouera en io_error tant que le stockage reste illisible.
func (s *SyncService) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.repo.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn().Err(err).Msg("progress store unreadable, starting empty")
		rec = domain.EmptyProgress()
	}
	s.committed.Store(&rec)
	s.logger.Info().Int("watched", len(rec.Watched)).Bool("resume", rec.Resume != nil).Msg("progress loaded")
	return nil
}

// Record renvoie le dernier état commité.
func (s *SyncService) Record(ctx context.Context) (domain.ProgressRecord, error) {
	if rec := s.committed.Load(); rec != nil {
		return rec.Clone(), nil
	}
	if err := s.Init(ctx); err != nil {
		return domain.ProgressRecord{}, err
	}
	return s.committed.Load().Clone(), nil
}

func (s *SyncService) Get(ctx context.Context) (ProgressDTO, error) {
	rec, err := s.Record(ctx)
	if err != nil {
		return ProgressDTO{}, err
	}
	return ToProgressDTO(rec), nil
}

// MarkWatched est idempotent : un id déjà vu ne déclenche pas d'écriture.
func (s *SyncService) MarkWatched(ctx context.Context, videoID string) (ProgressDTO, error) {
	return s.SetWatched(ctx, videoID, true)
}

func (s *SyncService) UnmarkWatched(ctx context.Context, videoID string) (ProgressDTO, error) {
	return s.SetWatched(ctx, videoID, false)
}

func (s *SyncService) SetWatched(ctx context.Context, videoID string, watched bool) (ProgressDTO, error) {
	id, err := s.videoID(videoID)
	if err != nil {
		return ProgressDTO{}, err
	}
	rec, err := s.mutate(ctx, func(cur domain.ProgressRecord) (domain.ProgressRecord, bool) {
		if watched {
			return cur.WithWatched(id)
		}
		return cur.WithoutWatched(id)
	})
	if err != nil {
		return ProgressDTO{}, err
	}
	return ToProgressDTO(rec), nil
}

// ToggleWatched inverse l'état de videoID dans la même section critique
// et renvoie le nouvel état.
func (s *SyncService) ToggleWatched(ctx context.Context, videoID string) (ProgressDTO, bool, error) {
	id, err := s.videoID(videoID)
	if err != nil {
		return ProgressDTO{}, false, err
	}
	var now bool
	rec, err := s.mutate(ctx, func(cur domain.ProgressRecord) (domain.ProgressRecord, bool) {
		if cur.IsWatched(id) {
			now = false
			return cur.WithoutWatched(id)
		}
		now = true
		return cur.WithWatched(id)
	})
	if err != nil {
		return ProgressDTO{}, false, err
	}
	return ToProgressDTO(rec), now, nil
}

// UpdateResume remplace la position de reprise (dernier appel gagnant).
func (s *SyncService) UpdateResume(ctx context.Context, videoID string, timeSeconds float64) (ProgressDTO, error) {
	id, err := s.videoID(videoID)
	if err != nil {
		return ProgressDTO{}, err
	}
	resume := domain.Resume{VideoID: id, TimeSeconds: timeSeconds}
	if err := resume.Validate(); err != nil {
		return ProgressDTO{}, invalidParams("timeSeconds must be a finite number >= 0")
	}
	rec, err := s.mutate(ctx, func(cur domain.ProgressRecord) (domain.ProgressRecord, bool) {
		return cur.WithResume(resume), true
	})
	if err != nil {
		return ProgressDTO{}, err
	}
	return ToProgressDTO(rec), nil
}

// ResetAll vide watched et resume en une seule écriture.
func (s *SyncService) ResetAll(ctx context.Context) (ProgressDTO, error) {
	rec, err := s.mutate(ctx, func(domain.ProgressRecord) (domain.ProgressRecord, bool) {
		return domain.EmptyProgress(), true
	})
	if err != nil {
		return ProgressDTO{}, err
	}
	return ToProgressDTO(rec), nil
}

// mutate exécute load → apply → save sous mu. Si save échoue, l'état commité
// en mémoire n'est pas modifié et l'erreur remonte à l'appelant.
func (s *SyncService) mutate(ctx context.Context, apply func(domain.ProgressRecord) (domain.ProgressRecord, bool)) (domain.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.repo.Load(ctx)
	if err != nil {
		return domain.ProgressRecord{}, &CodedError{Code: CodeIOError, Message: "load progress", Err: err}
	}
	next, changed := apply(cur)
	if changed {
		if err := s.repo.Save(ctx, next); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist progress")
			return domain.ProgressRecord{}, &CodedError{Code: CodeIOError, Message: "save progress", Err: err}
		}
	}
	committed := next.Clone()
	s.committed.Store(&committed)
	if changed {
		s.publish(committed)
	}
	return next, nil
}

func (s *SyncService) videoID(raw string) (string, error) {
	id := domain.NormalizeVideoID(raw)
	if id == "" {
		return "", invalidParams("missing videoId")
	}
	if s.videos != nil && !s.videos.HasVideo(id) {
		// Accepté quand même : le fichier a pu être déplacé et reviendra peut-être.
		s.logger.Debug().Str("video_id", id).Msg("progress for a video absent from the course")
	}
	return id, nil
}

func (s *SyncService) publish(rec domain.ProgressRecord) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(ToProgressDTO(rec))
	if err != nil {
		return
	}
	s.bus.Publish(ports.TopicProgressUpdated, b)
}
