package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

func TestCreateBatch_Validaciones(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   inventory.CreateBatchInput
	}{
		{"sin proveedor", inventory.CreateBatchInput{Items: []inventory.NewItem{{Description: "x", Quantity: 1}}, CreatedBy: "u"}},
		{"sin ítems", inventory.CreateBatchInput{SupplierID: "s", CreatedBy: "u"}},
		{"cantidad cero", inventory.CreateBatchInput{SupplierID: "s", Items: []inventory.NewItem{{Description: "x"}}, CreatedBy: "u"}},
		{"sin descripción ni producto", inventory.CreateBatchInput{SupplierID: "s", Items: []inventory.NewItem{{Quantity: 2}}, CreatedBy: "u"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.batches.CreateBatch(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreateBatch_NumeroSecuencialYBodegaPorDefecto(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	in := inventory.CreateBatchInput{
		SupplierID: "sup-1",
		Items: []inventory.NewItem{
			{Description: "Laptop", Quantity: 2},
			{ProductID: "prod-1", Quantity: 3},
		},
		CreatedBy: "user-1",
	}
	b1, err := e.batches.CreateBatch(ctx, in)
	require.NoError(t, err)
	b2, err := e.batches.CreateBatch(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "PO-202603-0001", b1.BatchNumber)
	assert.Equal(t, "PO-202603-0002", b2.BatchNumber)
	assert.Equal(t, entity.BatchAwaitingPrices, b1.Status)
	assert.Equal(t, "wh-main", b1.WarehouseID)
	assert.Equal(t, 5, b1.TotalQuantity)
	assert.Equal(t, 12, b1.Items[0].WarrantyMonths)
}

func TestCreateBatch_BodegaDesconocida(t *testing.T) {
	dir := &directoryMock{}
	dir.On("WarehouseExists", mock.Anything, "wh-x").Return(false, nil)
	e := newEngine(t, dir)

	_, err := e.batches.CreateBatch(context.Background(), inventory.CreateBatchInput{
		SupplierID: "sup-1", WarehouseID: "wh-x", CreatedBy: "u",
		Items: []inventory.NewItem{{Description: "Laptop", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	dir.AssertExpectations(t)
}

func TestAssignPrices(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b, err := e.batches.CreateBatch(ctx, inventory.CreateBatchInput{
		SupplierID: "sup-1", CreatedBy: "u",
		Items: []inventory.NewItem{{Description: "A", Quantity: 2}, {Description: "B", Quantity: 3}},
	})
	require.NoError(t, err)

	t.Run("falta un ítem", func(t *testing.T) {
		_, err := e.batches.AssignPrices(ctx, b.ID, []inventory.ItemPrice{{ItemID: b.Items[0].ID, UnitCost: decimal.NewFromInt(10)}}, "buyer")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("todos los ítems", func(t *testing.T) {
		priced, err := e.batches.AssignPrices(ctx, b.ID, []inventory.ItemPrice{
			{ItemID: b.Items[0].ID, UnitCost: decimal.NewFromInt(10)},
			{ItemID: b.Items[1].ID, UnitCost: decimal.RequireFromString("2.5")},
		}, "buyer")
		require.NoError(t, err)
		assert.Equal(t, entity.BatchReadyForReceiving, priced.Status)
		assert.True(t, priced.TotalCost.Equal(decimal.RequireFromString("27.5")))
	})

	t.Run("solo desde awaiting_prices", func(t *testing.T) {
		_, err := e.batches.AssignPrices(ctx, b.ID, nil, "buyer")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestUpdateItem_CerradoAlRecibir(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b := e.pricedBatch(t, 3)
	qty := 5

	updated, err := e.batches.UpdateItem(ctx, b.ID, b.Items[0].ID, inventory.ItemUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalQuantity)
	assert.True(t, updated.TotalCost.Equal(decimal.NewFromInt(2500)))

	_, err = e.batches.BeginReceiving(ctx, b.ID, "inspector-1")
	require.NoError(t, err)
	_, err = e.batches.UpdateItem(ctx, b.ID, b.Items[0].ID, inventory.ItemUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBeginReceiving_Idempotente(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b := e.pricedBatch(t, 1)

	first, err := e.batches.BeginReceiving(ctx, b.ID, "inspector-1")
	require.NoError(t, err)
	second, err := e.batches.BeginReceiving(ctx, b.ID, "inspector-1")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchReceiving, first.Status)
	assert.Equal(t, entity.BatchReceiving, second.Status)
}

func TestBeginReceiving_SinPrecios(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b, err := e.batches.CreateBatch(ctx, inventory.CreateBatchInput{
		SupplierID: "sup-1", CreatedBy: "u", Items: []inventory.NewItem{{Description: "A", Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = e.batches.BeginReceiving(ctx, b.ID, "inspector-1")
	assert.ErrorIs(t, err, domain.ErrBatchNotReceivable)
}

// Escenario D: pasar de 3 a 4 en un ítem de 3 falla y el contador queda en 3.
func TestRecordUnitsReceived_OverReceipt(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b := e.pricedBatch(t, 3)
	itemID := b.Items[0].ID

	got, err := e.batches.RecordUnitsReceived(ctx, b.ID, itemID, 3, "inspector-1")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchReceived, got.Status)

	_, err = e.batches.RecordUnitsReceived(ctx, b.ID, itemID, 1, "inspector-1")
	assert.ErrorIs(t, err, domain.ErrOverReceipt)

	b2, err := e.runner.Reader().Batches.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, b2.Items[0].ReceivedQuantity)
	assert.Equal(t, 3, b2.ReceivedQuantity)
}

func TestRecordUnitsReceived_ExcesoEnLoteAbierto(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b := e.pricedBatch(t, 3)
	itemID := b.Items[0].ID

	_, err := e.batches.RecordUnitsReceived(ctx, b.ID, itemID, 2, "inspector-1")
	require.NoError(t, err)
	_, err = e.batches.RecordUnitsReceived(ctx, b.ID, itemID, 2, "inspector-1")
	assert.ErrorIs(t, err, domain.ErrOverReceipt)

	item, _ := e.runner.Reader().Batches.GetItem(ctx, itemID)
	assert.Equal(t, 2, item.ReceivedQuantity)
}

func TestRecibido_SiYSoloSiCompleto(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b, err := e.batches.CreateBatch(ctx, inventory.CreateBatchInput{
		SupplierID: "sup-1", CreatedBy: "u",
		Items: []inventory.NewItem{{Description: "A", Quantity: 2}, {Description: "B", Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = e.batches.AssignPrices(ctx, b.ID, []inventory.ItemPrice{
		{ItemID: b.Items[0].ID, UnitCost: decimal.NewFromInt(1)},
		{ItemID: b.Items[1].ID, UnitCost: decimal.NewFromInt(1)},
	}, "buyer")
	require.NoError(t, err)

	got, err := e.batches.RecordUnitsReceived(ctx, b.ID, b.Items[0].ID, 2, "i")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchReceiving, got.Status)

	got, err = e.batches.RecordUnitsReceived(ctx, b.ID, b.Items[1].ID, 1, "i")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchReceived, got.Status)
	assert.Equal(t, got.TotalQuantity, got.ReceivedQuantity)
	assert.NotNil(t, got.ReceivedAt)
}

func TestCancel(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b := e.pricedBatch(t, 2)

	_, err := e.batches.Cancel(ctx, b.ID, "  ", "u")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := e.batches.Cancel(ctx, b.ID, "supplier issue", "u")
	require.NoError(t, err)
	assert.Equal(t, entity.BatchCancelled, got.Status)
	assert.Equal(t, "supplier issue", got.CancelReason)

	_, err = e.batches.Cancel(ctx, b.ID, "otra vez", "u")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = e.batches.RecordUnitsReceived(ctx, b.ID, b.Items[0].ID, 1, "u")
	assert.ErrorIs(t, err, domain.ErrBatchNotReceivable)
}

func TestMarkReadyToSell(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b := e.pricedBatch(t, 1)

	_, err := e.batches.MarkReadyToSell(ctx, b.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	unit := e.receiveUnit(t, b.Items[0].ID, entity.InspectionPassed)
	got, err := e.batches.MarkReadyToSell(ctx, b.ID, []inventory.SellingPrice{{Serial: unit.Device.SerialNumber, Price: decimal.NewFromInt(799)}})
	require.NoError(t, err)
	assert.Equal(t, entity.BatchReadyToSell, got.Status)

	d, err := e.runner.Reader().Devices.GetBySerial(ctx, unit.Device.SerialNumber)
	require.NoError(t, err)
	require.NotNil(t, d.SellingPrice)
	assert.True(t, d.SellingPrice.Equal(decimal.NewFromInt(799)))

	_, err = e.batches.Cancel(ctx, b.ID, "tarde", "u")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestListYStats(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	e.pricedBatch(t, 1)
	b := e.pricedBatch(t, 1)
	_, err := e.batches.Cancel(ctx, b.ID, "x", "u")
	require.NoError(t, err)

	list, err := e.batches.List(ctx, entity.BatchFilter{Status: entity.BatchCancelled})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	_, err = e.batches.List(ctx, entity.BatchFilter{Status: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	stats, err := e.batches.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[entity.BatchCancelled])
	assert.Equal(t, 1, stats[entity.BatchReadyForReceiving])
	assert.Equal(t, 0, stats[entity.BatchReceived])
	assert.Len(t, stats, len(entity.BatchStatuses))
}
