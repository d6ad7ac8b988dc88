package app

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/rs/zerolog"
)

var srtTimestamp = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})`)

// ConvertSRT transforme un sous-titre SubRip en WebVTT.
// Un fichier déjà au format WebVTT est renvoyé tel quel (sans BOM).
func ConvertSRT(src []byte) []byte {
	b := bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	if bytes.HasPrefix(b, []byte("WEBVTT")) {
		return b
	}
	b = srtTimestamp.ReplaceAll(b, []byte("$1.$2"))
	out := make([]byte, 0, len(b)+8)
	out = append(out, "WEBVTT\n\n"...)
	out = append(out, b...)
	return out
}

// SubtitleCache convertit les .srt du cours en .vtt une seule fois.
// Une entrée est régénérée quand le .srt source est plus récent que le cache.
type SubtitleCache struct {
	fsys   fs.FS
	dir    string
	logger zerolog.Logger

	mu sync.Mutex
}

func NewSubtitleCache(fsys fs.FS, dir string, logger zerolog.Logger) *SubtitleCache {
	return &SubtitleCache{fsys: fsys, dir: dir, logger: logger}
}

// VTT renvoie le chemin disque du .vtt converti pour le sous-titre rel.
func (c *SubtitleCache) VTT(ctx context.Context, rel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := fs.Stat(c.fsys, rel)
	if err != nil {
		return "", err
	}
	// La clé inclut taille et mtime exacts de la source : une copie plus ancienne
	// (cp -p, restauration) change la clé même si sa date recule.
	sum := sha256.Sum256([]byte(rel))
	prefix := hex.EncodeToString(sum[:16])
	target := filepath.Join(c.dir, fmt.Sprintf("%s-%x-%x.vtt", prefix, src.Size(), src.ModTime().UnixNano()))

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	raw, err := fs.ReadFile(c.fsys, rel)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(target, ConvertSRT(raw)); err != nil {
		return "", err
	}
	c.removeStale(prefix, target)
	c.logger.Debug().Str("subtitle", rel).Str("cache", target).Msg("srt converted")
	return target, nil
}

// removeStale supprime les conversions précédentes de la même source.
func (c *SubtitleCache) removeStale(prefix, keep string) {
	old, _ := filepath.Glob(filepath.Join(c.dir, prefix+"-*.vtt"))
	for _, p := range old {
		if p == keep {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn().Err(err).Str("cache", p).Msg("failed to remove stale subtitle")
		}
	}
}

func writeFileAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
