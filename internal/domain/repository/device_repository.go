package repository

import (
	"context"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DeviceRepository puerto de persistencia de unidades serializadas.
// Los dispositivos nunca se borran. Los Get* devuelven (nil, nil) si no existe.
type DeviceRepository interface {
	Create(ctx context.Context, device *entity.Device) error
	GetByID(ctx context.Context, id string) (*entity.Device, error)
	GetBySerial(ctx context.Context, serial string) (*entity.Device, error)
	// GetForUpdateBySerial bloquea la fila del dispositivo hasta el fin de la transacción.
	GetForUpdateBySerial(ctx context.Context, serial string) (*entity.Device, error)
	GetByIntakeKey(ctx context.Context, key string) (*entity.Device, error)
	// UpdateState persiste los campos desnormalizados con control optimista de versión:
	// device.Version es la versión leída; si cambió devuelve domain.ErrConcurrencyConflict.
	UpdateState(ctx context.Context, device *entity.Device) error
	UpdateSellingPrice(ctx context.Context, deviceID string, price decimal.Decimal) error
	ListByBatch(ctx context.Context, batchID string) ([]*entity.Device, error)
	Search(ctx context.Context, fragment string, limit int) ([]*entity.Device, error)
	ListInCustody(ctx context.Context, holderID string) ([]*entity.Device, error)
	CustodySummary(ctx context.Context) ([]entity.CustodySummary, error)
	CountByStatus(ctx context.Context) (map[entity.DeviceStatus]int, error)
}
