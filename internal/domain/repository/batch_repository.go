package repository

import (
	"context"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// BatchRepository puerto de persistencia de lotes de compra e ítems.
// Sin reglas de negocio más allá de la integridad referencial.
// Los Get* devuelven (nil, nil) si no existe.
type BatchRepository interface {
	// NextBatchNumber reserva el siguiente consecutivo del periodo (YYYYMM).
	NextBatchNumber(ctx context.Context, period string) (int, error)
	Create(ctx context.Context, batch *entity.PurchaseBatch) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseBatch, error)
	// GetForUpdate obtiene el lote con sus ítems y bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseBatch, error)
	GetItem(ctx context.Context, itemID string) (*entity.BatchItem, error)
	Update(ctx context.Context, batch *entity.PurchaseBatch) error
	UpdateItem(ctx context.Context, item *entity.BatchItem) error
	// IncrementItemReceived suma count al contador del ítem sin exceder la cantidad solicitada.
	// Devuelve domain.ErrOverReceipt (sin cambios) si se excedería.
	IncrementItemReceived(ctx context.Context, itemID string, count int) (int, error)
	// IncrementBatchReceived suma count al agregado del lote con la misma guarda.
	IncrementBatchReceived(ctx context.Context, batchID string, count int) (int, error)
	List(ctx context.Context, filter entity.BatchFilter) ([]*entity.PurchaseBatch, error)
	CountByStatus(ctx context.Context) (map[entity.BatchStatus]int, error)
}
