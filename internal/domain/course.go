package domain

import (
	"path"
	"strings"
	"time"
)

// Extensions reconnues (comparées en minuscules).
var (
	VideoExtensions    = []string{".mp4", ".mkv", ".webm", ".avi", ".mov"}
	SubtitleExtensions = []string{".vtt", ".srt"}
)

const (
	// RootSectionID identifie la section des vidéos posées à la racine du cours.
	RootSectionID    = "."
	RootSectionTitle = "General"

	// ResourcesDir est le sous-dossier d'une section listé comme ressources.
	ResourcesDir = "resources"
)

type SubtitleFormat string

const (
	SubtitleVTT SubtitleFormat = "vtt"
	SubtitleSRT SubtitleFormat = "srt"
)

// Course est un snapshot immuable du dossier de cours.
// Il n'est jamais modifié après construction : un rescan produit un nouveau Course.
type Course struct {
	ScanID    string
	Title     string
	ScannedAt time.Time
	Sections  []Section
	Warnings  []ScanWarning
}

type Section struct {
	// ID = chemin relatif du dossier ("." pour la racine).
	ID        string
	Title     string
	Videos    []Video
	Resources []Resource
}

type Video struct {
	// ID = chemin relatif depuis la racine, séparateur "/". Clé de jointure avec la progression.
	ID       string
	Title    string
	Subtitle *Subtitle
}

type Subtitle struct {
	Path   string
	Format SubtitleFormat
}

// NeedsConversion indique qu'un .srt doit passer en WebVTT avant lecture.
func (s Subtitle) NeedsConversion() bool {
	return s.Format == SubtitleSRT
}

type Resource struct {
	ID          string
	DisplayName string
}

// ScanWarning décrit une erreur récupérable rencontrée pendant un scan.
type ScanWarning struct {
	Path   string
	Reason string
}

// VideoCount renvoie le nombre total de vidéos du snapshot.
func (c *Course) VideoCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Videos)
	}
	return n
}

func (c *Course) SubtitleCount() int {
	n := 0
	for _, s := range c.Sections {
		for _, v := range s.Videos {
			if v.Subtitle != nil {
				n++
			}
		}
	}
	return n
}

// HasVideo indique si id fait partie du snapshot.
func (c *Course) HasVideo(id string) bool {
	for _, s := range c.Sections {
		for _, v := range s.Videos {
			if v.ID == id {
				return true
			}
		}
	}
	return false
}

func IsVideoFile(name string) bool {
	return hasExt(name, VideoExtensions)
}

func IsSubtitleFile(name string) bool {
	return hasExt(name, SubtitleExtensions)
}

func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// NormalizeVideoID ramène un identifiant client à la forme canonique (séparateur "/").
// Les espaces sont conservés : un nom de fichier peut commencer ou finir par un espace.
func NormalizeVideoID(id string) string {
	id = strings.ReplaceAll(id, "\\", "/")
	return strings.TrimPrefix(id, "/")
}
