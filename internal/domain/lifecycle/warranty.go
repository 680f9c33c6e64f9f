package lifecycle

import (
	"math"
	"time"
)

// Estados de garantía.
const (
	WarrantyNone         = "none"
	WarrantyActive       = "active"
	WarrantyExpiringSoon = "expiring_soon"
	WarrantyExpired      = "expired"
)

const expiringSoonDays = 30

// WarrantySummary estado de una garantía a la fecha now.
type WarrantySummary struct {
	State string
	Days  int // días restantes, o días desde que venció
	End   *time.Time
}

// Warranty calcula el resumen de garantía a partir de la fecha fin.
func Warranty(end *time.Time, now time.Time) WarrantySummary {
	if end == nil {
		return WarrantySummary{State: WarrantyNone}
	}
	daysLeft := int(math.Ceil(end.Sub(now).Hours() / 24))
	switch {
	case daysLeft < 0:
		return WarrantySummary{State: WarrantyExpired, Days: -daysLeft, End: end}
	case daysLeft < expiringSoonDays:
		return WarrantySummary{State: WarrantyExpiringSoon, Days: daysLeft, End: end}
	default:
		return WarrantySummary{State: WarrantyActive, Days: daysLeft, End: end}
	}
}

// WarrantyEnd suma months a start. Sin meses no hay garantía.
func WarrantyEnd(start time.Time, months int) *time.Time {
	if months <= 0 {
		return nil
	}
	end := start.AddDate(0, months, 0)
	return &end
}
