package lifecycle

import (
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// Condiciones físicas registradas en el dispositivo.
const (
	ConditionGood             = "good"
	ConditionFair             = "fair"
	ConditionPendingReview    = "pending_review"
	ConditionPoor             = "poor"
	ConditionNeedsMaintenance = "needs_maintenance"
	ConditionDamaged          = "damaged"
)

type intakeRule struct {
	Status    entity.DeviceStatus
	Condition string
}

// Una unidad que falla la inspección igual consume serial y cupo del ítem: queda "damaged".
var intakeRules = map[entity.InspectionOutcome]intakeRule{
	entity.InspectionPassed:           {Status: entity.StatusAvailable, Condition: ConditionGood},
	entity.InspectionPassedWithIssues: {Status: entity.StatusAvailable, Condition: ConditionFair},
	entity.InspectionNeedsReview:      {Status: entity.StatusInMaintenance, Condition: ConditionPendingReview},
	entity.InspectionFailed:           {Status: entity.StatusDamaged, Condition: ConditionPoor},
}

// InitialStatus estado inicial y condición de una unidad según el resultado de inspección.
func InitialStatus(outcome entity.InspectionOutcome) (entity.DeviceStatus, string, error) {
	r, ok := intakeRules[outcome]
	if !ok {
		return "", "", domain.Invalid("inspection_outcome", "resultado de inspección desconocido: "+string(outcome))
	}
	return r.Status, r.Condition, nil
}

var returnConditions = map[string]entity.DeviceStatus{
	"":                        entity.StatusAvailable,
	ConditionGood:             entity.StatusAvailable,
	ConditionFair:             entity.StatusAvailable,
	ConditionNeedsMaintenance: entity.StatusInMaintenance,
	ConditionDamaged:          entity.StatusDamaged,
}

// ReturnStatus estado al devolver una custodia según la condición reportada.
func ReturnStatus(condition string) (entity.DeviceStatus, error) {
	s, ok := returnConditions[condition]
	if !ok {
		return "", domain.Invalid("condition", "condición desconocida: "+condition)
	}
	return s, nil
}
