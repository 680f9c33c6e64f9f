package inventory_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

func (e *engine) availableUnit(t *testing.T) string {
	t.Helper()
	b := e.pricedBatch(t, 1)
	return e.receiveUnit(t, b.Items[0].ID, entity.InspectionPassed).Device.SerialNumber
}

func TestRecordMovement_VentaYDevolucion(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	serial := e.availableUnit(t)

	sold, err := e.moves.RecordMovement(ctx, inventory.MovementInput{
		Serial: serial, Type: entity.MovementSale, CustomerID: "cust-7",
		ReferenceType: entity.ReferenceInvoice, ReferenceID: "FV-100", PerformedBy: "seller-1",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSold, sold.Device.Status)
	assert.Equal(t, "cust-7", sold.Device.CustomerID)
	require.NotNil(t, sold.Device.WarrantyEnd)
	assert.Equal(t, sold.Movement.PerformedAt.AddDate(0, 12, 0), *sold.Device.WarrantyEnd)

	// Un dispositivo vendido no puede entrar en custodia.
	_, err = e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: serial, Type: entity.MovementCustodyAssign, ReferenceID: "emp-1", PerformedBy: "u"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: serial, Type: entity.MovementWarehouseTransfer, ToWarehouseID: "wh-2", PerformedBy: "u"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	returned, err := e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: serial, Type: entity.MovementSaleReturn, PerformedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReturned, returned.Device.Status)
	assert.Empty(t, returned.Device.CustomerID)
	assert.Equal(t, "cust-7", returned.Movement.ReferenceID)

	history, err := e.moves.History(ctx, serial)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	e.assertLedgerConsistent(t, serial)
}

func TestRecordMovement_TrasladoNoCambiaEstado(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	serial := e.availableUnit(t)

	res, err := e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: serial, Type: entity.MovementWarehouseTransfer, ToWarehouseID: "wh-2", PerformedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAvailable, res.Movement.FromStatus)
	assert.Equal(t, entity.StatusAvailable, res.Movement.ToStatus)
	assert.Equal(t, "wh-main", res.Movement.FromWarehouseID)
	assert.Equal(t, "wh-2", res.Movement.ToWarehouseID)
	assert.Equal(t, "wh-2", res.Device.WarehouseID)
}

func TestRecordMovement_Mantenimiento(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	serial := e.availableUnit(t)

	_, err := e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: serial, Type: entity.MovementMaintenanceIn, PerformedBy: "tech"})
	require.NoError(t, err)
	_, err = e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: serial, Type: entity.MovementMaintenanceIn, PerformedBy: "tech"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se entra a mantenimiento dos veces")

	_, err = e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: serial, Type: entity.MovementMaintenanceOut, TargetStatus: entity.StatusSold, PerformedBy: "tech"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "resultado no permitido")

	out, err := e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: serial, Type: entity.MovementMaintenanceOut, TargetStatus: entity.StatusDamaged, PerformedBy: "tech"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDamaged, out.Device.Status)
}

func TestRecordMovement_Validaciones(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	serial := e.availableUnit(t)

	cases := []struct {
		name string
		in   inventory.MovementInput
		want error
	}{
		{"tipo desconocido", inventory.MovementInput{Serial: serial, Type: "teleport", PerformedBy: "u"}, domain.ErrInvalidInput},
		{"sin actor", inventory.MovementInput{Serial: serial, Type: entity.MovementDamage}, domain.ErrInvalidInput},
		{"ajuste sin notas", inventory.MovementInput{Serial: serial, Type: entity.MovementAdjustment, PerformedBy: "u"}, domain.ErrInvalidInput},
		{"traslado sin bodega", inventory.MovementInput{Serial: serial, Type: entity.MovementWarehouseTransfer, PerformedBy: "u"}, domain.ErrInvalidInput},
		{"recepción manual", inventory.MovementInput{Serial: serial, Type: entity.MovementPurchaseReceived, PerformedBy: "u"}, domain.ErrInvalidInput},
		{"serial desconocido", inventory.MovementInput{Serial: "BI-1999-000001", Type: entity.MovementDamage, PerformedBy: "u"}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.moves.RecordMovement(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	history, err := e.moves.History(ctx, serial)
	require.NoError(t, err)
	assert.Len(t, history, 1, "los rechazos no agregan movimientos")
}

func TestRecordMovement_BodegaDesconocida(t *testing.T) {
	dir := permissiveDirectory()
	e := newEngine(t, dir)
	serial := e.availableUnit(t)

	strict := &directoryMock{}
	strict.On("WarehouseExists", mock.Anything, "wh-ghost").Return(false, nil)
	moves := inventory.NewRegisterMovementUseCase(e.runner, strict, e.settings)

	_, err := moves.RecordMovement(context.Background(), inventory.MovementInput{Serial: serial, Type: entity.MovementWarehouseTransfer, ToWarehouseID: "wh-ghost", PerformedBy: "u"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	strict.AssertExpectations(t)
}

func TestRecordMovement_AjusteEligeEstado(t *testing.T) {
	e := newEngine(t, nil)
	serial := e.availableUnit(t)
	res, err := e.moves.RecordMovement(context.Background(), inventory.MovementInput{
		Serial: serial, Type: entity.MovementAdjustment, TargetStatus: entity.StatusReserved,
		Notes: "conteo físico", PerformedBy: "auditor",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReserved, res.Device.Status)
}

func TestRecordMovement_UpgradeMezclaSpecs(t *testing.T) {
	e := newEngine(t, nil)
	serial := e.availableUnit(t)
	res, err := e.moves.RecordMovement(context.Background(), inventory.MovementInput{
		Serial: serial, Type: entity.MovementUpgrade, Specs: map[string]string{"ram": "32GB"}, PerformedBy: "tech",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAvailable, res.Device.Status)
	assert.Equal(t, "32GB", res.Device.ActualSpecs["ram"])
}

func TestRecordMovement_Idempotente(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	serial := e.availableUnit(t)
	in := inventory.MovementInput{Serial: serial, Type: entity.MovementDamage, IdempotencyKey: "req-42", PerformedBy: "u"}

	first, err := e.moves.RecordMovement(ctx, in)
	require.NoError(t, err)
	retry, err := e.moves.RecordMovement(ctx, in)
	require.NoError(t, err)
	assert.True(t, retry.Replayed)
	assert.Equal(t, first.Movement.ID, retry.Movement.ID)

	history, err := e.moves.History(ctx, serial)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	in.Type = entity.MovementMaintenanceIn
	_, err = e.moves.RecordMovement(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBulkTransfer_ResultadoPorSerial(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	ok := e.availableUnit(t)
	sold := e.availableUnit(t)
	_, err := e.moves.RecordMovement(ctx, inventory.MovementInput{Serial: sold, Type: entity.MovementSale, PerformedBy: "u"})
	require.NoError(t, err)

	results, err := e.moves.BulkTransfer(ctx, []string{ok, sold, "BI-0000-000000"}, "wh-2", "u", "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Error)
	assert.ErrorIs(t, results[1].Error, domain.ErrInvalidTransition)
	assert.ErrorIs(t, results[2].Error, domain.ErrNotFound)

	_, err = e.moves.BulkTransfer(ctx, nil, "wh-2", "u", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Secuencias aleatorias de movimientos: el estado cacheado siempre es el del último movimiento
// y cada rechazo deja el ledger intacto.
func TestPropiedad_EstadoIgualUltimoMovimiento(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	b := e.pricedBatch(t, 4)
	outcomes := []entity.InspectionOutcome{entity.InspectionPassed, entity.InspectionPassedWithIssues, entity.InspectionNeedsReview, entity.InspectionFailed}
	var serials []string
	for _, o := range outcomes {
		serials = append(serials, e.receiveUnit(t, b.Items[0].ID, o).Device.SerialNumber)
	}

	types := entity.MovementTypes[1:] // todo menos purchase_received
	statuses := append([]entity.DeviceStatus{""}, entity.DeviceStatuses...)
	for i := 0; i < 400; i++ {
		serial := serials[rng.Intn(len(serials))]
		before, err := e.moves.History(ctx, serial)
		require.NoError(t, err)

		in := inventory.MovementInput{
			Serial:        serial,
			Type:          types[rng.Intn(len(types))],
			TargetStatus:  statuses[rng.Intn(len(statuses))],
			ToWarehouseID: "wh-2",
			ReferenceID:   "emp-1",
			Notes:         "prueba",
			PerformedBy:   "prop",
		}
		from := before[len(before)-1].ToStatus
		_, err = e.moves.RecordMovement(ctx, in)
		after, herr := e.moves.History(ctx, serial)
		require.NoError(t, herr)

		if err != nil {
			require.True(t, domain.IsBusinessError(err), "error inesperado: %v", err)
			require.Len(t, after, len(before))
			if in.TargetStatus == "" {
				require.False(t, lifecycle.Allowed(in.Type, from))
			}
		} else {
			require.Len(t, after, len(before)+1)
			require.True(t, lifecycle.Allowed(in.Type, from))
		}
		e.assertLedgerConsistent(t, serial)
	}

	drift, err := e.recon.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)
}
