package entity

import "time"

// MovementType tipo de movimiento del ledger de dispositivos.
type MovementType string

const (
	MovementPurchaseReceived  MovementType = "purchase_received"
	MovementWarehouseTransfer MovementType = "warehouse_transfer"
	MovementCustodyAssign     MovementType = "custody_assign"
	MovementCustodyReturn     MovementType = "custody_return"
	MovementSale              MovementType = "sale"
	MovementSaleReturn        MovementType = "sale_return"
	MovementMaintenanceIn     MovementType = "maintenance_in"
	MovementMaintenanceOut    MovementType = "maintenance_out"
	MovementUpgrade           MovementType = "upgrade"
	MovementDowngrade         MovementType = "downgrade"
	MovementDamage            MovementType = "damage"
	MovementAdjustment        MovementType = "adjustment"
)

// MovementTypes todos los tipos conocidos.
var MovementTypes = []MovementType{
	MovementPurchaseReceived, MovementWarehouseTransfer, MovementCustodyAssign,
	MovementCustodyReturn, MovementSale, MovementSaleReturn, MovementMaintenanceIn,
	MovementMaintenanceOut, MovementUpgrade, MovementDowngrade, MovementDamage,
	MovementAdjustment,
}

// Tipos de documento de referencia habituales.
const (
	ReferenceEmployee      = "employee"
	ReferenceCustomer      = "customer"
	ReferencePurchaseBatch = "purchase_batch"
	ReferenceInvoice       = "invoice"
)

// Movement entrada append-only del ledger. No se edita ni se borra.
type Movement struct {
	ID              string
	DeviceID        string
	Sequence        int // 1..n por dispositivo
	Type            MovementType
	FromStatus      DeviceStatus
	ToStatus        DeviceStatus
	FromWarehouseID string
	ToWarehouseID   string
	ReferenceType   string
	ReferenceID     string
	IdempotencyKey  string
	PerformedBy     string
	PerformedAt     time.Time
	Notes           string
}

// StatusDrift dispositivo cuyo estado cacheado difiere del último movimiento.
type StatusDrift struct {
	DeviceID     string
	SerialNumber string
	Cached       DeviceStatus
	Ledger       DeviceStatus
}

// MovementFeedItem movimiento con el serial del dispositivo (feed de recientes).
type MovementFeedItem struct {
	Movement
	SerialNumber string
	ProductID    string
}
