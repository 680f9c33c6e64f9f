package repository

import (
	"context"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// SerialSequenceRepository contador centralizado de seriales.
type SerialSequenceRepository interface {
	// GetForUpdate lee la configuración y bloquea el contador; crea defaults si no existe.
	GetForUpdate(ctx context.Context, defaults entity.SerialSettings) (*entity.SerialSettings, error)
	Get(ctx context.Context, defaults entity.SerialSettings) (*entity.SerialSettings, error)
	Save(ctx context.Context, settings *entity.SerialSettings) error
}
