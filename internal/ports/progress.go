package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/course-player/internal/domain"
)

// ProgressRepository est le stockage durable de la progression d'un cours.
//
// Load ne doit jamais échouer sur un enregistrement absent ou corrompu :
// il renvoie alors un record vide. Save remplace le record de façon atomique
// (un lecteur voit l'ancien ou le nouveau, jamais un mélange) et deux Save
// concurrents ne s'entrelacent pas.
type ProgressRepository interface {
	Load(ctx context.Context) (domain.ProgressRecord, error)
	Save(ctx context.Context, record domain.ProgressRecord) error
	Reset(ctx context.Context) error
}
