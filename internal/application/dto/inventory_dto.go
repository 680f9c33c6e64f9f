package dto

import "time"

// RegisterMovementRequest body para POST /api/devices/:serial/movements.
// target_status solo aplica a custody_return, maintenance_out y adjustment.
type RegisterMovementRequest struct {
	Type           string            `json:"type"`
	TargetStatus   string            `json:"target_status,omitempty"`
	ToWarehouseID  string            `json:"to_warehouse_id,omitempty"`
	ReferenceType  string            `json:"reference_type,omitempty"`
	ReferenceID    string            `json:"reference_id,omitempty"`
	CustomerID     string            `json:"customer_id,omitempty"`
	Condition      string            `json:"condition,omitempty"`
	Specs          map[string]string `json:"specs,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Notes          string            `json:"notes,omitempty"`
}

// MovementResponse entrada del ledger.
type MovementResponse struct {
	ID              string    `json:"id"`
	DeviceID        string    `json:"device_id"`
	SerialNumber    string    `json:"serial_number,omitempty"`
	Sequence        int       `json:"sequence"`
	Type            string    `json:"type"`
	FromStatus      string    `json:"from_status"`
	ToStatus        string    `json:"to_status"`
	FromWarehouseID string    `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string    `json:"to_warehouse_id,omitempty"`
	ReferenceType   string    `json:"reference_type,omitempty"`
	ReferenceID     string    `json:"reference_id,omitempty"`
	PerformedBy     string    `json:"performed_by"`
	PerformedAt     time.Time `json:"performed_at"`
	Notes           string    `json:"notes,omitempty"`
}

// MovementResultResponse respuesta de un movimiento registrado.
type MovementResultResponse struct {
	Movement MovementResponse `json:"movement"`
	Device   DeviceResponse   `json:"device"`
	Replayed bool             `json:"replayed,omitempty"`
}

// MovementStatsResponse GET /api/movements/stats.
type MovementStatsResponse struct {
	ByStatus       map[string]int `json:"by_status"`
	TodayByType    map[string]int `json:"today_by_type"`
	InCustody      int            `json:"in_custody"`
	TotalDevices   int            `json:"total_devices"`
	TodayMovements int            `json:"today_movements"`
}

// StatusDriftResponse dispositivo cuyo estado difiere del ledger.
type StatusDriftResponse struct {
	DeviceID     string `json:"device_id"`
	SerialNumber string `json:"serial_number"`
	Cached       string `json:"cached_status"`
	Ledger       string `json:"ledger_status"`
}

// AssignCustodyRequest body para POST /api/custody/assign.
type AssignCustodyRequest struct {
	Serial         string `json:"serial"`
	HolderID       string `json:"holder_id"`
	Reason         string `json:"reason,omitempty"`
	Notes          string `json:"notes,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ReturnCustodyRequest body para POST /api/custody/return.
type ReturnCustodyRequest struct {
	Serial         string `json:"serial"`
	Condition      string `json:"condition,omitempty"`
	WarehouseID    string `json:"warehouse_id,omitempty"`
	Notes          string `json:"notes,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TransferCustodyRequest body para POST /api/custody/transfer.
type TransferCustodyRequest struct {
	Serial   string `json:"serial"`
	HolderID string `json:"holder_id"`
	Reason   string `json:"reason,omitempty"`
}

// CustodySummaryResponse dispositivos por responsable.
type CustodySummaryResponse struct {
	HolderID  string `json:"holder_id"`
	ItemCount int    `json:"item_count"`
}

// SerialSettingsRequest body para PUT /api/serials/settings.
type SerialSettingsRequest struct {
	Prefix      string `json:"prefix"`
	Separator   string `json:"separator"`
	YearFormat  string `json:"year_format"`
	Digits      int    `json:"digits"`
	ResetYearly bool   `json:"reset_yearly"`
}

// SerialSettingsResponse configuración con el último serial emitido y el siguiente.
type SerialSettingsResponse struct {
	Prefix          string    `json:"prefix"`
	Separator       string    `json:"separator"`
	YearFormat      string    `json:"year_format"`
	Digits          int       `json:"digits"`
	ResetYearly     bool      `json:"reset_yearly"`
	CurrentYear     int       `json:"current_year"`
	CurrentSequence int64     `json:"current_sequence"`
	NextSerial      string    `json:"next_serial,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}
