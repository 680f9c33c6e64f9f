package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

// Repos repositorios del motor. Dentro de TxRunner.Run están atados a la misma transacción.
type Repos struct {
	Batches   repository.BatchRepository
	Devices   repository.DeviceRepository
	Movements repository.MovementRepository
	Serials   repository.SerialSequenceRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback: no quedan entradas parciales en el ledger.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
	// Reader repositorios fuera de transacción, solo para lecturas.
	Reader() Repos
}

// ProductInfo datos de catálogo para mostrar un producto.
type ProductInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	SKU   string `json:"sku,omitempty"`
	Model string `json:"model,omitempty"`
}

// Directory colaboradores externos: catálogo de productos y registros de bodegas,
// empleados y clientes. Product devuelve (nil, nil) si no existe.
type Directory interface {
	Product(ctx context.Context, id string) (*ProductInfo, error)
	WarehouseExists(ctx context.Context, id string) (bool, error)
	EmployeeExists(ctx context.Context, id string) (bool, error)
	CustomerExists(ctx context.Context, id string) (bool, error)
}

// Settings parámetros del motor (vienen de pkg/config).
type Settings struct {
	DefaultWarehouseID     string
	WarrantyMonths         int // garantía al cliente si el ítem no define otra
	SupplierWarrantyMonths int
	Serial                 entity.SerialSettings
	Now                    func() time.Time
}

func (s Settings) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC().Truncate(time.Microsecond)
	}
	return time.Now().UTC().Truncate(time.Microsecond)
}
