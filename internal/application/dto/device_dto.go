package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeviceResponse salida de un dispositivo serializado.
type DeviceResponse struct {
	ID                  string            `json:"id"`
	SerialNumber        string            `json:"serial_number"`
	BatchID             string            `json:"batch_id"`
	BatchItemID         string            `json:"batch_item_id"`
	SupplierID          string            `json:"supplier_id"`
	ProductID           string            `json:"product_id,omitempty"`
	Description         string            `json:"description,omitempty"`
	WarehouseID         string            `json:"warehouse_id"`
	Status              string            `json:"status"`
	HolderID            string            `json:"holder_id,omitempty"`
	CustodySince        *time.Time        `json:"custody_since,omitempty"`
	CustomerID          string            `json:"customer_id,omitempty"`
	SaleDate            *time.Time        `json:"sale_date,omitempty"`
	InspectionOutcome   string            `json:"inspection_outcome"`
	Condition           string            `json:"condition"`
	Defects             []string          `json:"defects,omitempty"`
	ActualSpecs         map[string]string `json:"actual_specs,omitempty"`
	PurchaseCost        *decimal.Decimal  `json:"purchase_cost,omitempty"`
	SellingPrice        *decimal.Decimal  `json:"selling_price,omitempty"`
	WarrantyEnd         *time.Time        `json:"warranty_end,omitempty"`
	SupplierWarrantyEnd *time.Time        `json:"supplier_warranty_end,omitempty"`
	Notes               string            `json:"notes,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// ProductResponse datos de catálogo resueltos por el directorio.
type ProductResponse struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	SKU   string `json:"sku,omitempty"`
	Model string `json:"model,omitempty"`
}

// LookupResponse GET /api/devices/lookup/:code.
type LookupResponse struct {
	Code       string           `json:"code"`
	Found      bool             `json:"found"`
	Status     string           `json:"status,omitempty"`
	Device     *DeviceResponse  `json:"device,omitempty"`
	Product    *ProductResponse `json:"product,omitempty"`
	HolderID   string           `json:"holder_id,omitempty"`
	CustomerID string           `json:"customer_id,omitempty"`
}

// WarrantyResponse resumen de garantía.
type WarrantyResponse struct {
	State string     `json:"state"`
	Days  int        `json:"days"`
	End   *time.Time `json:"end,omitempty"`
}

// HistoryStatsResponse conteos del historial.
type HistoryStatsResponse struct {
	TotalMovements int `json:"total_movements"`
	Transfers      int `json:"transfers"`
	CustodyChanges int `json:"custody_changes"`
	Maintenance    int `json:"maintenance"`
	DaysInStock    int `json:"days_in_stock"`
}

// DeviceHistoryResponse GET /api/devices/:serial/history.
type DeviceHistoryResponse struct {
	Device           DeviceResponse       `json:"device"`
	Product          *ProductResponse     `json:"product,omitempty"`
	Movements        []MovementResponse   `json:"movements"`
	Stats            HistoryStatsResponse `json:"stats"`
	Warranty         WarrantyResponse     `json:"warranty"`
	SupplierWarranty WarrantyResponse     `json:"supplier_warranty"`
	Condition        string               `json:"condition"`
	Defects          []string             `json:"defects,omitempty"`
	Consistent       bool                 `json:"consistent"`
}

// DeviceStatusResponse GET /api/devices/:serial/status.
type DeviceStatusResponse struct {
	Serial string `json:"serial"`
	Status string `json:"status"`
}

// BulkTransferRequest body para POST /api/devices/transfer.
type BulkTransferRequest struct {
	Serials       []string `json:"serials"`
	ToWarehouseID string   `json:"to_warehouse_id"`
	Notes         string   `json:"notes,omitempty"`
}

// TransferResultResponse resultado por serial.
type TransferResultResponse struct {
	Serial string `json:"serial"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}
