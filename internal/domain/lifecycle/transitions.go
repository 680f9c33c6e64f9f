// Package lifecycle contiene las reglas puras del ciclo de vida de lotes y dispositivos
// serializados (servicios de dominio sin dependencias de infraestructura).
package lifecycle

import (
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// Transition regla para un tipo de movimiento.
// To vacío significa "mismo estado" (solo cambia ubicación o especificaciones).
type Transition struct {
	From         []entity.DeviceStatus
	To           entity.DeviceStatus
	Alternatives []entity.DeviceStatus
}

type transitionKey struct {
	Type entity.MovementType
	From entity.DeviceStatus
}

type transitionResult struct {
	Default entity.DeviceStatus
	Allowed map[entity.DeviceStatus]bool
}

var (
	anyStatus      = entity.DeviceStatuses
	notSold        = without(entity.DeviceStatuses, entity.StatusSold)
	specChangeable = []entity.DeviceStatus{
		entity.StatusAvailable, entity.StatusReserved, entity.StatusReturned, entity.StatusInMaintenance,
	}
)

// Rules tabla de transiciones: tipo de movimiento -> estados origen válidos -> estado resultante.
// Agregar un tipo de movimiento es agregar una entrada aquí.
var Rules = map[entity.MovementType]Transition{
	entity.MovementPurchaseReceived: {
		From:         []entity.DeviceStatus{entity.StatusNone},
		To:           entity.StatusAvailable,
		Alternatives: []entity.DeviceStatus{entity.StatusInMaintenance, entity.StatusDamaged},
	},
	entity.MovementWarehouseTransfer: {From: notSold},
	entity.MovementCustodyAssign: {
		From: []entity.DeviceStatus{entity.StatusAvailable},
		To:   entity.StatusInCustody,
	},
	entity.MovementCustodyReturn: {
		From:         []entity.DeviceStatus{entity.StatusInCustody},
		To:           entity.StatusAvailable,
		Alternatives: []entity.DeviceStatus{entity.StatusInMaintenance, entity.StatusDamaged},
	},
	entity.MovementSale: {
		From: []entity.DeviceStatus{entity.StatusAvailable, entity.StatusReserved},
		To:   entity.StatusSold,
	},
	entity.MovementSaleReturn: {
		From: []entity.DeviceStatus{entity.StatusSold},
		To:   entity.StatusReturned,
	},
	entity.MovementMaintenanceIn: {
		From: []entity.DeviceStatus{
			entity.StatusAvailable, entity.StatusReserved, entity.StatusInCustody,
			entity.StatusReturned, entity.StatusDamaged,
		},
		To: entity.StatusInMaintenance,
	},
	entity.MovementMaintenanceOut: {
		From:         []entity.DeviceStatus{entity.StatusInMaintenance},
		To:           entity.StatusAvailable,
		Alternatives: []entity.DeviceStatus{entity.StatusDamaged},
	},
	entity.MovementUpgrade:   {From: specChangeable},
	entity.MovementDowngrade: {From: specChangeable},
	entity.MovementDamage: {
		From: anyStatus,
		To:   entity.StatusDamaged,
	},
	entity.MovementAdjustment: {
		From:         anyStatus,
		Alternatives: anyStatus,
	},
}

// table se compila una vez desde Rules.
var table = compile(Rules)

func compile(rules map[entity.MovementType]Transition) map[transitionKey]transitionResult {
	t := make(map[transitionKey]transitionResult)
	for typ, rule := range rules {
		for _, from := range rule.From {
			res := transitionResult{Default: rule.To, Allowed: map[entity.DeviceStatus]bool{}}
			if res.Default == "" {
				res.Default = from
			}
			res.Allowed[res.Default] = true
			for _, alt := range rule.Alternatives {
				res.Allowed[alt] = true
			}
			t[transitionKey{Type: typ, From: from}] = res
		}
	}
	return t
}

// Resolve devuelve el estado resultante de aplicar typ sobre un dispositivo en from.
// requested (opcional) elige una de las alternativas permitidas por la regla.
func Resolve(typ entity.MovementType, from entity.DeviceStatus, requested entity.DeviceStatus) (entity.DeviceStatus, error) {
	res, ok := table[transitionKey{Type: typ, From: from}]
	if !ok {
		if _, known := Rules[typ]; !known {
			return "", domain.Invalid("movement_type", "tipo de movimiento desconocido: "+string(typ))
		}
		return "", &domain.TransitionError{Entity: "device", From: string(from), Action: string(typ)}
	}
	if requested == "" {
		return res.Default, nil
	}
	if !res.Allowed[requested] {
		return "", &domain.TransitionError{Entity: "device", From: string(from), Action: string(typ) + "->" + string(requested)}
	}
	return requested, nil
}

// Allowed indica si typ es aplicable desde from.
func Allowed(typ entity.MovementType, from entity.DeviceStatus) bool {
	_, ok := table[transitionKey{Type: typ, From: from}]
	return ok
}

func without(list []entity.DeviceStatus, drop entity.DeviceStatus) []entity.DeviceStatus {
	out := make([]entity.DeviceStatus, 0, len(list))
	for _, s := range list {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}
