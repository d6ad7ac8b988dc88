// Package jsonfile stocke la progression dans un fichier JSON à côté du cours.
//
// Format sur disque :
//
//	{"watched": ["2-Intro/a.mp4", ...], "resume": {"video": "2-Intro/b.mp4", "time": 42.5}}
//
// "resume" est absent quand aucune position n'est connue.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/rs/zerolog"
)

const DefaultFileName = "progress.json"

type ProgressRepository struct {
	path   string
	logger zerolog.Logger

	// mu sérialise les écritures (et les lectures faites par ce process).
	mu sync.Mutex
}

func NewProgressRepository(path string, logger zerolog.Logger) *ProgressRepository {
	return &ProgressRepository{path: path, logger: logger}
}

func (r *ProgressRepository) Path() string {
	return r.path
}

// Load renvoie un état vide si le fichier manque ou est corrompu, et une erreur
// s'il existe mais ne peut pas être lu.
func (r *ProgressRepository) Load(ctx context.Context) (domain.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProgressRecord{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.EmptyProgress(), nil
	}
	if err != nil {
		// Pas de repli sur un état vide : le save suivant écraserait le fichier.
		return domain.ProgressRecord{}, fmt.Errorf("read progress: %w", err)
	}
	rec, err := decode(b)
	if err != nil {
		r.logger.Warn().Err(err).Str("path", r.path).Msg("progress file corrupt, starting empty")
		return domain.EmptyProgress(), nil
	}
	return rec, nil
}

func (r *ProgressRepository) Save(ctx context.Context, record domain.ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encode(record)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return writeAtomic(r.path, b)
}

func (r *ProgressRepository) Reset(ctx context.Context) error {
	return r.Save(ctx, domain.EmptyProgress())
}

func decode(b []byte) (domain.ProgressRecord, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return domain.EmptyProgress(), nil
	}
	var rec domain.ProgressRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.ProgressRecord{}, err
	}
	return rec.Normalize(), nil
}

// encode indente à deux espaces, sans retour à la ligne final :
// c'est la forme qu'écrivait l'ancien lecteur, un load→save ne modifie donc pas le fichier.
func encode(rec domain.ProgressRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// writeAtomic écrit dans un fichier temporaire du même dossier puis le renomme.
func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync tmp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename tmp: %w", err)
	}
	syncDir(dir)
	return nil
}

// syncDir rend le rename durable. Best-effort : certains systèmes refusent fsync sur un dossier.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
