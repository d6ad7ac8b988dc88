package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/rs/zerolog"
)

// ProgressRepository garde un record JSON par racine de cours.
// La forme JSON est celle du fichier progress.json.
type ProgressRepository struct {
	db        *sql.DB
	courseKey string
	logger    zerolog.Logger
}

func NewProgressRepository(db *sql.DB, courseKey string, logger zerolog.Logger) *ProgressRepository {
	return &ProgressRepository{db: db, courseKey: courseKey, logger: logger}
}

func (r *ProgressRepository) Load(ctx context.Context) (domain.ProgressRecord, error) {
	var b []byte
	err := r.db.QueryRowContext(ctx, `SELECT value_json FROM progress WHERE course_key = ?`, r.courseKey).Scan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Pas encore de progression pour ce cours.
			return domain.EmptyProgress(), nil
		}
		return domain.ProgressRecord{}, err
	}
	var rec domain.ProgressRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		// Si corrompu : on repart de zéro.
		r.logger.Warn().Err(err).Str("course", r.courseKey).Msg("stored progress corrupt, starting empty")
		return domain.EmptyProgress(), nil
	}
	return rec.Normalize(), nil
}

// Save remplace le record en une seule instruction : SQLite garantit l'atomicité
// et la connexion unique (SetMaxOpenConns(1)) sérialise les écritures.
func (r *ProgressRepository) Save(ctx context.Context, record domain.ProgressRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO progress(course_key, value_json, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(course_key) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at
	`, r.courseKey, b, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (r *ProgressRepository) Reset(ctx context.Context) error {
	return r.Save(ctx, domain.EmptyProgress())
}
