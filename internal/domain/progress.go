package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

var ErrInvalidResume = errors.New("invalid resume position")

// Resume est la position de reprise unique du cours.
type Resume struct {
	VideoID     string
	TimeSeconds float64
}

func (r Resume) Validate() error {
	if r.VideoID == "" {
		return ErrInvalidResume
	}
	if math.IsNaN(r.TimeSeconds) || math.IsInf(r.TimeSeconds, 0) || r.TimeSeconds < 0 {
		return ErrInvalidResume
	}
	return nil
}

// ProgressRecord est l'état de visionnage persisté.
//
// Watched a une sémantique d'ensemble mais garde l'ordre d'insertion,
// pour qu'un load→save reproduise le fichier à l'identique.
type ProgressRecord struct {
	Watched []string
	Resume  *Resume
}

func EmptyProgress() ProgressRecord {
	return ProgressRecord{Watched: []string{}}
}

// Clone renvoie une copie indépendante (slices et pointeur).
func (p ProgressRecord) Clone() ProgressRecord {
	out := ProgressRecord{Watched: make([]string, len(p.Watched))}
	copy(out.Watched, p.Watched)
	if p.Resume != nil {
		r := *p.Resume
		out.Resume = &r
	}
	return out
}

func (p ProgressRecord) IsWatched(id string) bool {
	for _, w := range p.Watched {
		if w == id {
			return true
		}
	}
	return false
}

// WithWatched ajoute id. Renvoie false si id était déjà présent.
func (p ProgressRecord) WithWatched(id string) (ProgressRecord, bool) {
	if p.IsWatched(id) {
		return p, false
	}
	out := p.Clone()
	out.Watched = append(out.Watched, id)
	return out, true
}

// WithoutWatched retire id. Renvoie false si id était absent.
func (p ProgressRecord) WithoutWatched(id string) (ProgressRecord, bool) {
	if !p.IsWatched(id) {
		return p, false
	}
	out := p.Clone()
	kept := out.Watched[:0]
	for _, w := range out.Watched {
		if w != id {
			kept = append(kept, w)
		}
	}
	out.Watched = kept
	return out, true
}

func (p ProgressRecord) WithResume(r Resume) ProgressRecord {
	out := p.Clone()
	out.Resume = &r
	return out
}

// Normalize supprime les doublons et les ids vides, en gardant la première occurrence.
// Les ids stockés ne sont pas réécrits : ils doivent rester égaux aux Video.ID du scan.
func (p ProgressRecord) Normalize() ProgressRecord {
	out := ProgressRecord{Watched: make([]string, 0, len(p.Watched))}
	seen := make(map[string]struct{}, len(p.Watched))
	for _, w := range p.Watched {
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out.Watched = append(out.Watched, w)
	}
	if p.Resume != nil {
		r := *p.Resume
		if r.Validate() == nil {
			out.Resume = &r
		}
	}
	return out
}

// Equal compare deux records en sémantique d'ensemble pour Watched.
func (p ProgressRecord) Equal(o ProgressRecord) bool {
	if len(p.Watched) != len(o.Watched) {
		return false
	}
	for _, w := range p.Watched {
		if !o.IsWatched(w) {
			return false
		}
	}
	switch {
	case p.Resume == nil && o.Resume == nil:
		return true
	case p.Resume == nil || o.Resume == nil:
		return false
	default:
		return *p.Resume == *o.Resume
	}
}

// Forme persistée : {"watched": [...], "resume": {"video": id, "time": n}}.
type progressJSON struct {
	Watched []string    `json:"watched"`
	Resume  *resumeJSON `json:"resume,omitempty"`
}

type resumeJSON struct {
	Video string  `json:"video"`
	Time  float64 `json:"time"`
}

// MarshalJSON n'échappe pas le HTML : c'est l'encodeur appelant qui décide (json.Marshal échappe, l'encodeur du fichier non).
func (p ProgressRecord) MarshalJSON() ([]byte, error) {
	pj := progressJSON{Watched: p.Watched}
	if pj.Watched == nil {
		pj.Watched = []string{}
	}
	if p.Resume != nil {
		pj.Resume = &resumeJSON{Video: p.Resume.VideoID, Time: p.Resume.TimeSeconds}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pj); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (p *ProgressRecord) UnmarshalJSON(b []byte) error {
	var pj progressJSON
	if err := json.Unmarshal(b, &pj); err != nil {
		return err
	}
	p.Watched = pj.Watched
	p.Resume = nil
	if pj.Resume != nil {
		p.Resume = &Resume{VideoID: pj.Resume.Video, TimeSeconds: pj.Resume.Time}
	}
	return nil
}
