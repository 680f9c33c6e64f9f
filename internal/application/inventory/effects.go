package inventory

import (
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

// effect actualiza los campos desnormalizados del dispositivo (custodia, cliente, bodega)
// y completa el movimiento. El estado lo fija siempre el motor.
type effect func(d *entity.Device, m *entity.Movement, in MovementInput)

var effects = map[entity.MovementType]effect{
	entity.MovementWarehouseTransfer: func(d *entity.Device, m *entity.Movement, in MovementInput) {
		m.ToWarehouseID = in.ToWarehouseID
		d.WarehouseID = in.ToWarehouseID
	},
	entity.MovementCustodyAssign: func(d *entity.Device, m *entity.Movement, in MovementInput) {
		if m.ReferenceType == "" {
			m.ReferenceType = entity.ReferenceEmployee
		}
		since := m.PerformedAt
		d.HolderID = in.ReferenceID
		d.CustodySince = &since
		d.CustodyReason = in.CustodyReason
	},
	entity.MovementCustodyReturn: func(d *entity.Device, m *entity.Movement, in MovementInput) {
		if m.ReferenceType == "" && d.HolderID != "" {
			m.ReferenceType = entity.ReferenceEmployee
			m.ReferenceID = d.HolderID
		}
		if in.Condition != "" {
			d.Condition = in.Condition
		}
		if in.ToWarehouseID != "" {
			m.ToWarehouseID = in.ToWarehouseID
			d.WarehouseID = in.ToWarehouseID
		}
	},
	entity.MovementSale: func(d *entity.Device, m *entity.Movement, in MovementInput) {
		at := m.PerformedAt
		d.CustomerID = in.CustomerID
		d.SaleDate = &at
		d.WarrantyStart = &at
		d.WarrantyEnd = lifecycle.WarrantyEnd(at, d.WarrantyMonths)
	},
	entity.MovementSaleReturn: func(d *entity.Device, m *entity.Movement, in MovementInput) {
		if m.ReferenceType == "" && d.CustomerID != "" {
			m.ReferenceType = entity.ReferenceCustomer
			m.ReferenceID = d.CustomerID
		}
		d.CustomerID = ""
	},
	entity.MovementMaintenanceIn:  conditionEffect,
	entity.MovementMaintenanceOut: conditionEffect,
	entity.MovementDamage: func(d *entity.Device, m *entity.Movement, in MovementInput) {
		d.Condition = lifecycle.ConditionDamaged
	},
	entity.MovementUpgrade:    specsEffect,
	entity.MovementDowngrade:  specsEffect,
	entity.MovementAdjustment: conditionEffect,
}

// clearCustody quita el responsable cuando el equipo sale de custodia por cualquier movimiento.
func clearCustody(d *entity.Device) {
	d.HolderID = ""
	d.CustodySince = nil
	d.CustodyReason = ""
}

func conditionEffect(d *entity.Device, _ *entity.Movement, in MovementInput) {
	if in.Condition != "" {
		d.Condition = in.Condition
	}
}

func specsEffect(d *entity.Device, _ *entity.Movement, in MovementInput) {
	if len(in.Specs) == 0 {
		return
	}
	if d.ActualSpecs == nil {
		d.ActualSpecs = map[string]string{}
	}
	for k, v := range in.Specs {
		d.ActualSpecs[k] = v
	}
}
