package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeviceStatus estado lógico de una unidad serializada.
// Siempre coincide con ToStatus del último movimiento del dispositivo.
type DeviceStatus string

const (
	StatusNone          DeviceStatus = "none" // solo como FromStatus del primer movimiento
	StatusAvailable     DeviceStatus = "available"
	StatusReserved      DeviceStatus = "reserved"
	StatusInCustody     DeviceStatus = "in_custody"
	StatusSold          DeviceStatus = "sold"
	StatusReturned      DeviceStatus = "returned"
	StatusInMaintenance DeviceStatus = "in_maintenance"
	StatusDamaged       DeviceStatus = "damaged"
)

// DeviceStatuses estados reales (sin StatusNone).
var DeviceStatuses = []DeviceStatus{
	StatusAvailable, StatusReserved, StatusInCustody, StatusSold,
	StatusReturned, StatusInMaintenance, StatusDamaged,
}

// Valid indica si s es un estado real de dispositivo.
func (s DeviceStatus) Valid() bool {
	for _, st := range DeviceStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Terminal estados de los que ya no se sale salvo por devolución de venta, daño o ajuste.
func (s DeviceStatus) Terminal() bool {
	return s == StatusSold
}

// InspectionOutcome resultado de la inspección al recibir.
type InspectionOutcome string

const (
	InspectionPassed           InspectionOutcome = "passed"
	InspectionPassedWithIssues InspectionOutcome = "passed_with_issues"
	InspectionNeedsReview      InspectionOutcome = "needs_review"
	InspectionFailed           InspectionOutcome = "failed"
)

// Device unidad física serializada. Nunca se borra.
type Device struct {
	ID                  string
	SerialNumber        string // inmutable, único global
	BatchID             string
	BatchItemID         string
	SupplierID          string
	ProductID           string
	Description         string
	WarehouseID         string
	Status              DeviceStatus
	HolderID            string
	CustodySince        *time.Time
	CustodyReason       string
	CustomerID          string
	SaleDate            *time.Time
	Inspection          InspectionOutcome
	Condition           string
	Defects             []string
	ActualSpecs         map[string]string
	PurchaseCost        *decimal.Decimal
	SellingPrice        *decimal.Decimal
	WarrantyMonths      int
	WarrantyStart       *time.Time
	WarrantyEnd         *time.Time
	SupplierWarrantyEnd *time.Time
	IntakeKey           string // clave de idempotencia de la recepción
	Notes               string
	Version             int
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CustodySummary unidades en custodia por responsable.
type CustodySummary struct {
	HolderID  string
	ItemCount int
}
