package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchItemRequest línea solicitada. Sin precio: lo asigna compras después.
type BatchItemRequest struct {
	ProductID      string `json:"product_id,omitempty"`
	Description    string `json:"description,omitempty"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
	WarrantyMonths int    `json:"warranty_months,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// CreateBatchRequest body para POST /api/batches.
type CreateBatchRequest struct {
	SupplierID  string             `json:"supplier_id" validate:"required"`
	WarehouseID string             `json:"warehouse_id,omitempty"`
	Items       []BatchItemRequest `json:"items" validate:"required,min=1"`
	Notes       string             `json:"notes,omitempty"`
}

// ItemPriceRequest costo unitario de un ítem.
type ItemPriceRequest struct {
	ItemID   string          `json:"item_id"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// AssignPricesRequest body para PATCH /api/batches/:id/prices.
type AssignPricesRequest struct {
	Prices []ItemPriceRequest `json:"prices"`
}

// UpdateBatchItemRequest body para PATCH /api/batches/:id/items/:itemId.
type UpdateBatchItemRequest struct {
	Quantity    *int    `json:"quantity,omitempty"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// UnitsReceivedRequest body para POST /api/batches/:id/items/:itemId/received.
type UnitsReceivedRequest struct {
	Count int `json:"count"`
}

// CancelBatchRequest body para POST /api/batches/:id/cancel.
type CancelBatchRequest struct {
	Reason string `json:"reason"`
}

// SellingPriceRequest precio de venta de un serial.
type SellingPriceRequest struct {
	Serial string          `json:"serial"`
	Price  decimal.Decimal `json:"price"`
}

// ReadyToSellRequest body para POST /api/batches/:id/ready-to-sell.
type ReadyToSellRequest struct {
	SellingPrices []SellingPriceRequest `json:"selling_prices,omitempty"`
}

// ReceiveUnitRequest body para POST /api/batches/:id/units.
type ReceiveUnitRequest struct {
	BatchItemID       string            `json:"batch_item_id"`
	InspectionOutcome string            `json:"inspection_outcome"`
	ActualSpecs       map[string]string `json:"actual_specs,omitempty"`
	Defects           []string          `json:"defects,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	IdempotencyKey    string            `json:"idempotency_key,omitempty"`
}

// BatchItemResponse línea del lote.
type BatchItemResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id,omitempty"`
	ProductName      string           `json:"product_name,omitempty"`
	Description      string           `json:"description,omitempty"`
	Quantity         int              `json:"quantity"`
	ReceivedQuantity int              `json:"received_quantity"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost        *decimal.Decimal `json:"total_cost,omitempty"`
	WarrantyMonths   int              `json:"warranty_months"`
	Notes            string           `json:"notes,omitempty"`
}

// BatchResponse salida de un lote.
type BatchResponse struct {
	ID               string              `json:"id"`
	BatchNumber      string              `json:"batch_number"`
	SupplierID       string              `json:"supplier_id"`
	WarehouseID      string              `json:"warehouse_id"`
	Status           string              `json:"status"`
	TotalQuantity    int                 `json:"total_quantity"`
	ReceivedQuantity int                 `json:"received_quantity"`
	TotalCost        *decimal.Decimal    `json:"total_cost,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	CancelReason     string              `json:"cancel_reason,omitempty"`
	CreatedBy        string              `json:"created_by"`
	ReceivedBy       string              `json:"received_by,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	PricedAt         *time.Time          `json:"priced_at,omitempty"`
	ReceivedAt       *time.Time          `json:"received_at,omitempty"`
	Items            []BatchItemResponse `json:"items"`
}

// BatchProgressResponse avance de recepción.
type BatchProgressResponse struct {
	Total    int     `json:"total"`
	Received int     `json:"received"`
	Percent  float64 `json:"percent"`
}

// BatchDetailResponse GET /api/batches/:id.
type BatchDetailResponse struct {
	Batch    BatchResponse         `json:"batch"`
	Devices  []DeviceResponse      `json:"devices"`
	Progress BatchProgressResponse `json:"progress"`
}

// BatchListResponse lista de lotes.
type BatchListResponse struct {
	Items []BatchResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// ReceiveUnitResponse unidad serializada.
type ReceiveUnitResponse struct {
	Device   DeviceResponse   `json:"device"`
	Movement MovementResponse `json:"movement"`
	Batch    BatchResponse    `json:"batch"`
	Replayed bool             `json:"replayed,omitempty"`
}
