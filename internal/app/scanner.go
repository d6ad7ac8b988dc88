package app

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/Guilhem-Bonnet/course-player/internal/natsort"
	"github.com/rs/xid"
)

// Scanner construit un snapshot domain.Course à partir d'un dossier de cours.
//
// Regroupement :
//   - les vidéos posées à la racine forment la section "General" (id ".") ;
//   - chaque sous-dossier direct de la racine est une section, parcourue récursivement
//     (sauf son dossier "resources", listé comme ressources) ;
//   - une section sans vidéo est ignorée.
//
// Les identifiants sont les chemins relatifs (séparateur "/"), jamais l'ordre de scan.
type Scanner struct {
	FS    fs.FS
	Title string

	now func() time.Time
}

func NewScanner(fsys fs.FS, title string) *Scanner {
	return &Scanner{FS: fsys, Title: title, now: time.Now}
}

type scannedVideo struct {
	video domain.Video
	// sortKey = chemin relatif à la section.
	sortKey string
}

func (s *Scanner) Scan(ctx context.Context) (domain.Course, error) {
	entries, err := fs.ReadDir(s.FS, ".")
	if err != nil {
		return domain.Course{}, &ScanError{Path: ".", Err: err}
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	course := domain.Course{
		ScanID:    xid.New().String(),
		Title:     s.Title,
		ScannedAt: now().UTC(),
	}

	rootVideos := s.filesSection(entries)
	if len(rootVideos) > 0 {
		course.Sections = append(course.Sections, domain.Section{
			ID:     domain.RootSectionID,
			Title:  domain.RootSectionTitle,
			Videos: rootVideos,
		})
	}

	var dirs []string
	for _, e := range entries {
		if domain.IsHidden(e.Name()) {
			continue
		}
		if s.isDir(e.Name(), e) {
			dirs = append(dirs, e.Name())
		}
	}
	natsort.Strings(dirs)

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return domain.Course{}, err
		}
		section, warnings, err := s.scanSection(ctx, dir)
		course.Warnings = append(course.Warnings, warnings...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return domain.Course{}, err
			}
			course.Warnings = append(course.Warnings, domain.ScanWarning{Path: dir, Reason: err.Error()})
			continue
		}
		if len(section.Videos) == 0 {
			continue
		}
		course.Sections = append(course.Sections, section)
	}
	return course, nil
}

// filesSection renvoie les vidéos directement contenues dans entries (racine du cours).
func (s *Scanner) filesSection(entries []fs.DirEntry) []domain.Video {
	subs := subtitleIndex(".", entries)
	var videos []scannedVideo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || domain.IsHidden(name) || !domain.IsVideoFile(name) {
			continue
		}
		v := newVideo(".", name, nil, subs)
		videos = append(videos, scannedVideo{video: v, sortKey: name})
	}
	return sortedVideos(videos)
}

// scanSection parcourt un dossier de section. Une erreur renvoyée signifie
// que le dossier lui-même est illisible ; les erreurs plus profondes sont des warnings.
func (s *Scanner) scanSection(ctx context.Context, dir string) (domain.Section, []domain.ScanWarning, error) {
	section := domain.Section{ID: dir, Title: dir}
	var warnings []domain.ScanWarning
	var videos []scannedVideo
	resourcesDir := ""

	var walk func(rel string, parts []string) error
	walk = func(rel string, parts []string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		full := path.Join(dir, rel)
		entries, err := fs.ReadDir(s.FS, full)
		if err != nil {
			if rel == "" {
				return err
			}
			warnings = append(warnings, domain.ScanWarning{Path: full, Reason: err.Error()})
			return nil
		}

		subs := subtitleIndex(full, entries)
		for _, e := range entries {
			name := e.Name()
			if domain.IsHidden(name) {
				continue
			}
			if w, skip := s.symlinkedDir(path.Join(full, name), e); skip {
				warnings = append(warnings, w)
				continue
			}
			if e.IsDir() {
				if rel == "" && strings.EqualFold(name, domain.ResourcesDir) {
					resourcesDir = path.Join(full, name)
					continue
				}
				if err := walk(path.Join(rel, name), append(parts[:len(parts):len(parts)], name)); err != nil {
					return err
				}
				continue
			}
			if !domain.IsVideoFile(name) {
				continue
			}
			v := newVideo(full, name, parts, subs)
			videos = append(videos, scannedVideo{video: v, sortKey: path.Join(rel, name)})
		}
		return nil
	}

	if err := walk("", nil); err != nil {
		return domain.Section{}, warnings, err
	}
	section.Videos = sortedVideos(videos)

	if resourcesDir != "" {
		resources, w := s.scanResources(ctx, resourcesDir)
		section.Resources = resources
		warnings = append(warnings, w...)
	}
	return section, warnings, nil
}

// scanResources liste récursivement les fichiers non cachés de dir.
func (s *Scanner) scanResources(ctx context.Context, dir string) ([]domain.Resource, []domain.ScanWarning) {
	var out []domain.Resource
	var warnings []domain.ScanWarning

	var walk func(rel string)
	walk = func(rel string) {
		if ctx.Err() != nil {
			return
		}
		full := path.Join(dir, rel)
		entries, err := fs.ReadDir(s.FS, full)
		if err != nil {
			warnings = append(warnings, domain.ScanWarning{Path: full, Reason: err.Error()})
			return
		}
		for _, e := range entries {
			name := e.Name()
			if domain.IsHidden(name) {
				continue
			}
			if w, skip := s.symlinkedDir(path.Join(full, name), e); skip {
				warnings = append(warnings, w)
				continue
			}
			if e.IsDir() {
				walk(path.Join(rel, name))
				continue
			}
			out = append(out, domain.Resource{ID: path.Join(full, name), DisplayName: path.Join(rel, name)})
		}
	}
	walk("")

	natsort.Sort(out, func(r domain.Resource) string { return r.DisplayName })
	return out, warnings
}

// isDir suit les liens symboliques. Ne sert qu'au premier niveau (sections) :
// à l'intérieur d'une section, voir symlinkedDir.
func (s *Scanner) isDir(p string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := fs.Stat(s.FS, p)
	return err == nil && info.IsDir()
}

// symlinkedDir repère un lien vers un dossier à l'intérieur d'une section.
// Ces liens ne sont pas suivis : un lien vers un parent ferait boucler le parcours
// et une même vidéo apparaîtrait sous plusieurs ids.
func (s *Scanner) symlinkedDir(p string, e fs.DirEntry) (domain.ScanWarning, bool) {
	if e.Type()&fs.ModeSymlink == 0 {
		return domain.ScanWarning{}, false
	}
	info, err := fs.Stat(s.FS, p)
	if err != nil || !info.IsDir() {
		return domain.ScanWarning{}, false
	}
	return domain.ScanWarning{Path: p, Reason: "symlinked directory not followed"}, true
}

// subtitleIndex associe un nom de base (casse exacte) aux sous-titres présents dans dir.
func subtitleIndex(dir string, entries []fs.DirEntry) map[string]map[domain.SubtitleFormat]string {
	out := map[string]map[domain.SubtitleFormat]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || domain.IsHidden(name) || !domain.IsSubtitleFile(name) {
			continue
		}
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)
		format := domain.SubtitleFormat(strings.TrimPrefix(strings.ToLower(ext), "."))
		if out[base] == nil {
			out[base] = map[domain.SubtitleFormat]string{}
		}
		out[base][format] = path.Join(dir, name)
	}
	return out
}

func newVideo(dir, name string, parts []string, subs map[string]map[domain.SubtitleFormat]string) domain.Video {
	stem := strings.TrimSuffix(name, path.Ext(name))
	v := domain.Video{
		ID:    path.Join(dir, name),
		Title: videoTitle(parts, stem),
	}
	// .vtt est lisible tel quel, .srt sert de repli.
	for _, format := range []domain.SubtitleFormat{domain.SubtitleVTT, domain.SubtitleSRT} {
		if p, ok := subs[stem][format]; ok {
			v.Subtitle = &domain.Subtitle{Path: p, Format: format}
			break
		}
	}
	return v
}

// videoTitle préfixe le nom de la vidéo par ses sous-dossiers dans la section,
// à partir du premier dossier "Module..." s'il y en a un.
func videoTitle(parts []string, stem string) string {
	if len(parts) == 0 {
		return stem
	}
	prefix := parts
	for i, p := range parts {
		if strings.HasPrefix(strings.ToLower(p), "module") {
			prefix = parts[i:]
			break
		}
	}
	return strings.Join(append(append([]string(nil), prefix...), stem), " - ")
}

func sortedVideos(videos []scannedVideo) []domain.Video {
	natsort.Sort(videos, func(v scannedVideo) string { return v.sortKey })
	out := make([]domain.Video, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.video)
	}
	return out
}
