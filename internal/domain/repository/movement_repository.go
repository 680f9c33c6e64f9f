package repository

import (
	"context"
	"time"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// MovementRepository ledger append-only de movimientos de dispositivos.
// No expone Update ni Delete.
type MovementRepository interface {
	Append(ctx context.Context, movement *entity.Movement) error
	// ListByDevice historial completo ordenado por (performed_at, sequence) ascendente.
	ListByDevice(ctx context.Context, deviceID string) ([]*entity.Movement, error)
	Last(ctx context.Context, deviceID string) (*entity.Movement, error)
	GetByIdempotencyKey(ctx context.Context, deviceID, key string) (*entity.Movement, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.MovementFeedItem, error)
	ListByReference(ctx context.Context, refType, refID string, limit int) ([]*entity.MovementFeedItem, error)
	CountByTypeSince(ctx context.Context, since time.Time) (map[entity.MovementType]int, error)
	// FindStatusDrift dispositivos cuyo estado cacheado no coincide con el último movimiento.
	FindStatusDrift(ctx context.Context, limit int) ([]entity.StatusDrift, error)
}
