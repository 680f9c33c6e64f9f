package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus estado de un lote de compra.
type BatchStatus string

const (
	BatchAwaitingPrices    BatchStatus = "awaiting_prices"
	BatchReadyForReceiving BatchStatus = "ready_for_receiving"
	BatchReceiving         BatchStatus = "receiving"
	BatchReceived          BatchStatus = "received"
	BatchReadyToSell       BatchStatus = "ready_to_sell"
	BatchCancelled         BatchStatus = "cancelled"
)

// BatchStatuses en orden de ciclo de vida.
var BatchStatuses = []BatchStatus{
	BatchAwaitingPrices, BatchReadyForReceiving, BatchReceiving,
	BatchReceived, BatchReadyToSell, BatchCancelled,
}

// PurchaseBatch lote de compra (orden de compra a granel) con sus ítems.
type PurchaseBatch struct {
	ID               string
	BatchNumber      string // PO-YYYYMM-NNNN
	SupplierID       string
	WarehouseID      string
	Status           BatchStatus
	TotalQuantity    int
	ReceivedQuantity int
	TotalCost        *decimal.Decimal
	Notes            string
	CancelReason     string
	CreatedBy        string
	PricedBy         string
	ReceivedBy       string
	CreatedAt        time.Time
	PricedAt         *time.Time
	ReceivedAt       *time.Time
	UpdatedAt        time.Time
	Items            []*BatchItem
}

// Item busca un ítem del lote por ID.
func (b *PurchaseBatch) Item(id string) *BatchItem {
	for _, it := range b.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Remaining unidades pendientes de recibir en todo el lote.
func (b *PurchaseBatch) Remaining() int {
	return b.TotalQuantity - b.ReceivedQuantity
}

// BatchItem línea de un lote. Pertenece a un único PurchaseBatch.
type BatchItem struct {
	ID               string
	BatchID          string
	ProductID        string // opcional: referencia al catálogo
	Description      string // texto libre cuando no hay producto en catálogo
	Quantity         int
	ReceivedQuantity int
	UnitCost         *decimal.Decimal
	TotalCost        *decimal.Decimal
	WarrantyMonths   int
	Notes            string
}

// Remaining unidades pendientes del ítem.
func (i *BatchItem) Remaining() int {
	return i.Quantity - i.ReceivedQuantity
}

// BatchFilter filtros para listar lotes.
type BatchFilter struct {
	Status     BatchStatus
	SupplierID string
	Limit      int
	Offset     int
}
