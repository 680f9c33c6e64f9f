package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/infrastructure/memory"
)

// directoryMock implementa inventory.Directory con testify/mock.
type directoryMock struct {
	mock.Mock
}

func (m *directoryMock) Product(ctx context.Context, id string) (*inventory.ProductInfo, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*inventory.ProductInfo)
	return p, args.Error(1)
}

func (m *directoryMock) WarehouseExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *directoryMock) EmployeeExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *directoryMock) CustomerExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// permissiveDirectory acepta cualquier referencia.
func permissiveDirectory() *directoryMock {
	d := &directoryMock{}
	d.On("Product", mock.Anything, mock.Anything).Return(&inventory.ProductInfo{ID: "prod-1", Name: "Laptop X1", SKU: "X1"}, nil).Maybe()
	d.On("WarehouseExists", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	d.On("EmployeeExists", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	d.On("CustomerExists", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	return d
}

type engine struct {
	runner   *memory.TxRunner
	moves    *inventory.RegisterMovementUseCase
	batches  *inventory.BatchLifecycleUseCase
	receive  *inventory.ReceiveUnitUseCase
	custody  *inventory.CustodyUseCase
	lookup   *inventory.LookupUseCase
	recon    *inventory.ReconcileUseCase
	serials  *inventory.SerialSettingsUseCase
	settings inventory.Settings
}

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, dir inventory.Directory) *engine {
	t.Helper()
	if dir == nil {
		dir = permissiveDirectory()
	}
	settings := inventory.Settings{
		DefaultWarehouseID:     "wh-main",
		WarrantyMonths:         12,
		SupplierWarrantyMonths: 6,
		Now:                    func() time.Time { return testNow },
	}
	runner := memory.NewTxRunner(memory.New())
	moves := inventory.NewRegisterMovementUseCase(runner, dir, settings)
	batches := inventory.NewBatchLifecycleUseCase(runner, dir, settings)
	return &engine{
		runner:   runner,
		moves:    moves,
		batches:  batches,
		receive:  inventory.NewReceiveUnitUseCase(runner, moves, batches, settings),
		custody:  inventory.NewCustodyUseCase(runner, moves),
		lookup:   inventory.NewLookupUseCase(runner, dir, settings),
		recon:    inventory.NewReconcileUseCase(runner),
		serials:  inventory.NewSerialSettingsUseCase(runner, settings),
		settings: settings,
	}
}

// pricedBatch crea un lote con un ítem de qty unidades y le asigna precio.
func (e *engine) pricedBatch(t *testing.T, qty int) *entity.PurchaseBatch {
	t.Helper()
	ctx := context.Background()
	b, err := e.batches.CreateBatch(ctx, inventory.CreateBatchInput{
		SupplierID: "sup-1",
		Items:      []inventory.NewItem{{ProductID: "prod-1", Description: "Laptop X1", Quantity: qty}},
		CreatedBy:  "user-1",
	})
	require.NoError(t, err)
	b, err = e.batches.AssignPrices(ctx, b.ID, []inventory.ItemPrice{{ItemID: b.Items[0].ID, UnitCost: decimal.NewFromInt(500)}}, "buyer-1")
	require.NoError(t, err)
	return b
}

func (e *engine) receiveUnit(t *testing.T, itemID string, outcome entity.InspectionOutcome) *inventory.ReceiveUnitResult {
	t.Helper()
	res, err := e.receive.ReceiveUnit(context.Background(), inventory.ReceiveUnitInput{
		BatchItemID: itemID,
		Outcome:     outcome,
		PerformedBy: "inspector-1",
	})
	require.NoError(t, err)
	return res
}

// assertLedgerConsistent comprueba currentStatus == last(history).toStatus.
func (e *engine) assertLedgerConsistent(t *testing.T, serial string) {
	t.Helper()
	ctx := context.Background()
	status, err := e.moves.CurrentStatus(ctx, serial)
	require.NoError(t, err)
	history, err := e.moves.History(ctx, serial)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	require.Equal(t, history[len(history)-1].ToStatus, status, "serial %s", serial)
	for i, m := range history {
		require.Equal(t, i+1, m.Sequence)
		if i > 0 {
			require.Equal(t, history[i-1].ToStatus, m.FromStatus)
			require.True(t, m.PerformedAt.After(history[i-1].PerformedAt))
		}
	}
}
