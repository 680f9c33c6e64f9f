package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de transiciones de dispositivos
// ──────────────────────────────────────────────────────────────────────────────

func TestRules_CubreTodosLosTiposDeMovimiento(t *testing.T) {
	for _, typ := range entity.MovementTypes {
		rule, ok := lifecycle.Rules[typ]
		require.True(t, ok, "falta regla para %s", typ)
		assert.NotEmpty(t, rule.From, "la regla %s debe tener al menos un estado origen", typ)
	}
	assert.Len(t, lifecycle.Rules, len(entity.MovementTypes), "no debe haber reglas huérfanas")
}

func TestRules_ResultadosSonEstadosValidos(t *testing.T) {
	for typ, rule := range lifecycle.Rules {
		for _, from := range rule.From {
			to, err := lifecycle.Resolve(typ, from, "")
			require.NoError(t, err, "%s desde %s", typ, from)
			assert.True(t, to.Valid(), "%s desde %s produce estado inválido %q", typ, from, to)
		}
	}
}

// Cada par (tipo, estado) no declarado debe rechazarse con ErrInvalidTransition.
func TestResolve_ParesNoDeclaradosSeRechazan(t *testing.T) {
	all := append([]entity.DeviceStatus{entity.StatusNone}, entity.DeviceStatuses...)
	for _, typ := range entity.MovementTypes {
		declared := map[entity.DeviceStatus]bool{}
		for _, f := range lifecycle.Rules[typ].From {
			declared[f] = true
		}
		for _, from := range all {
			_, err := lifecycle.Resolve(typ, from, "")
			if declared[from] {
				assert.NoError(t, err, "%s desde %s", typ, from)
				continue
			}
			assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s desde %s", typ, from)
		}
	}
}

func TestResolve_CasosDeNegocio(t *testing.T) {
	cases := []struct {
		name      string
		typ       entity.MovementType
		from      entity.DeviceStatus
		requested entity.DeviceStatus
		want      entity.DeviceStatus
		wantErr   bool
	}{
		{"custodia desde disponible", entity.MovementCustodyAssign, entity.StatusAvailable, "", entity.StatusInCustody, false},
		{"custodia de vendido", entity.MovementCustodyAssign, entity.StatusSold, "", "", true},
		{"devolución a mantenimiento", entity.MovementCustodyReturn, entity.StatusInCustody, entity.StatusInMaintenance, entity.StatusInMaintenance, false},
		{"devolución a vendido no permitido", entity.MovementCustodyReturn, entity.StatusInCustody, entity.StatusSold, "", true},
		{"venta desde reservado", entity.MovementSale, entity.StatusReserved, "", entity.StatusSold, false},
		{"venta desde custodia", entity.MovementSale, entity.StatusInCustody, "", "", true},
		{"devolución de venta", entity.MovementSaleReturn, entity.StatusSold, "", entity.StatusReturned, false},
		{"mantenimiento doble", entity.MovementMaintenanceIn, entity.StatusInMaintenance, "", "", true},
		{"mantenimiento de vendido", entity.MovementMaintenanceIn, entity.StatusSold, "", "", true},
		{"salida de mantenimiento dañado", entity.MovementMaintenanceOut, entity.StatusInMaintenance, entity.StatusDamaged, entity.StatusDamaged, false},
		{"traslado conserva estado", entity.MovementWarehouseTransfer, entity.StatusInCustody, "", entity.StatusInCustody, false},
		{"traslado de vendido", entity.MovementWarehouseTransfer, entity.StatusSold, "", "", true},
		{"daño desde vendido", entity.MovementDamage, entity.StatusSold, "", entity.StatusDamaged, false},
		{"ajuste a reservado", entity.MovementAdjustment, entity.StatusAvailable, entity.StatusReserved, entity.StatusReserved, false},
		{"recepción inicial", entity.MovementPurchaseReceived, entity.StatusNone, "", entity.StatusAvailable, false},
		{"recepción repetida", entity.MovementPurchaseReceived, entity.StatusAvailable, "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := lifecycle.Resolve(tc.typ, tc.from, tc.requested)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_TipoDesconocidoEsValidacion(t *testing.T) {
	_, err := lifecycle.Resolve("teleport", entity.StatusAvailable, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, errors.Is(err, domain.ErrInvalidTransition))
}

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados del lote
// ──────────────────────────────────────────────────────────────────────────────

func TestNextBatchStatus_CaminoFeliz(t *testing.T) {
	steps := []struct {
		action lifecycle.BatchAction
		want   entity.BatchStatus
	}{
		{lifecycle.ActionAssignPrices, entity.BatchReadyForReceiving},
		{lifecycle.ActionBeginReceiving, entity.BatchReceiving},
		{lifecycle.ActionBeginReceiving, entity.BatchReceiving},
		{lifecycle.ActionComplete, entity.BatchReceived},
		{lifecycle.ActionMarkReady, entity.BatchReadyToSell},
	}
	status := entity.BatchAwaitingPrices
	for _, s := range steps {
		next, err := lifecycle.NextBatchStatus(status, s.action)
		require.NoError(t, err, "%s desde %s", s.action, status)
		assert.Equal(t, s.want, next)
		status = next
	}
}

func TestNextBatchStatus_Cancelacion(t *testing.T) {
	for _, st := range entity.BatchStatuses {
		_, err := lifecycle.NextBatchStatus(st, lifecycle.ActionCancel)
		if st == entity.BatchCancelled || st == entity.BatchReadyToSell {
			assert.ErrorIs(t, err, domain.ErrInvalidTransition, "cancelar desde %s", st)
			continue
		}
		assert.NoError(t, err, "cancelar desde %s", st)
	}
}

func TestNextBatchStatus_RecepcionDeLoteCancelado(t *testing.T) {
	_, err := lifecycle.NextBatchStatus(entity.BatchCancelled, lifecycle.ActionReceive)
	assert.ErrorIs(t, err, domain.ErrBatchNotReceivable)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Inspección
// ──────────────────────────────────────────────────────────────────────────────

func TestInitialStatus(t *testing.T) {
	cases := map[entity.InspectionOutcome]entity.DeviceStatus{
		entity.InspectionPassed:           entity.StatusAvailable,
		entity.InspectionPassedWithIssues: entity.StatusAvailable,
		entity.InspectionNeedsReview:      entity.StatusInMaintenance,
		entity.InspectionFailed:           entity.StatusDamaged,
	}
	for outcome, want := range cases {
		got, _, err := lifecycle.InitialStatus(outcome)
		require.NoError(t, err)
		assert.Equal(t, want, got, string(outcome))
		// el estado inicial debe ser alcanzable por purchase_received
		_, err = lifecycle.Resolve(entity.MovementPurchaseReceived, entity.StatusNone, got)
		assert.NoError(t, err)
	}
	_, _, err := lifecycle.InitialStatus("maybe")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReturnStatus(t *testing.T) {
	s, err := lifecycle.ReturnStatus(lifecycle.ConditionNeedsMaintenance)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInMaintenance, s)

	s, err = lifecycle.ReturnStatus("")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAvailable, s)

	_, err = lifecycle.ReturnStatus("exploded")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
