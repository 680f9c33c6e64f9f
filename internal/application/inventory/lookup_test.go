package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "BI-2026-000001", inventory.NormalizeCode("  bi-2026-000001\n"))
	assert.Equal(t, "BI-2026-000001", inventory.NormalizeCode("ＢＩ－２０２６－０００００１"))
}

func TestLookupBySerial(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	serial := e.availableUnit(t)
	_, err := e.custody.AssignCustody(ctx, inventory.AssignCustodyInput{Serial: serial, HolderID: "emp-4", PerformedBy: "u"})
	require.NoError(t, err)

	res, err := e.lookup.LookupBySerial(ctx, " "+serial+" ")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, entity.StatusInCustody, res.Device.Status)
	assert.Equal(t, "emp-4", res.HolderID)
	require.NotNil(t, res.Product)
	assert.Equal(t, "Laptop X1", res.Product.Name)

	missing, err := e.lookup.LookupBySerial(ctx, "BI-2026-999999")
	require.NoError(t, err)
	assert.False(t, missing.Found)

	_, err = e.lookup.LookupBySerial(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b := e.pricedBatch(t, 3)
	for i := 0; i < 3; i++ {
		e.receiveUnit(t, b.Items[0].ID, entity.InspectionPassed)
	}

	_, err := e.lookup.Search(ctx, "B")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	found, err := e.lookup.Search(ctx, "000002")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "BI-2026-000002", found[0].SerialNumber)

	all, err := e.lookup.Search(ctx, "bi-2026")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestBatchDetail(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	b := e.pricedBatch(t, 4)
	e.receiveUnit(t, b.Items[0].ID, entity.InspectionPassed)

	detail, err := e.lookup.BatchDetail(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Devices, 1)
	assert.Equal(t, 4, detail.Progress.Total)
	assert.Equal(t, 1, detail.Progress.Received)
	assert.InDelta(t, 25.0, detail.Progress.Percent, 0.001)
	assert.Equal(t, "Laptop X1", detail.Products["prod-1"].Name)

	_, err = e.lookup.BatchDetail(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeviceHistory(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	serial := e.availableUnit(t)
	steps := []inventory.MovementInput{
		{Serial: serial, Type: entity.MovementWarehouseTransfer, ToWarehouseID: "wh-2", PerformedBy: "u"},
		{Serial: serial, Type: entity.MovementCustodyAssign, ReferenceID: "emp-1", PerformedBy: "u"},
		{Serial: serial, Type: entity.MovementCustodyReturn, PerformedBy: "u"},
		{Serial: serial, Type: entity.MovementMaintenanceIn, PerformedBy: "u"},
		{Serial: serial, Type: entity.MovementMaintenanceOut, PerformedBy: "u"},
		{Serial: serial, Type: entity.MovementSale, CustomerID: "cust-1", PerformedBy: "u"},
	}
	for _, s := range steps {
		_, err := e.moves.RecordMovement(ctx, s)
		require.NoError(t, err, string(s.Type))
	}

	h, err := e.lookup.DeviceHistory(ctx, serial)
	require.NoError(t, err)
	assert.Len(t, h.Movements, 7)
	assert.Equal(t, 7, h.Stats.TotalMovements)
	assert.Equal(t, 1, h.Stats.Transfers)
	assert.Equal(t, 2, h.Stats.CustodyChanges)
	assert.Equal(t, 1, h.Stats.Maintenance)
	assert.Equal(t, lifecycle.WarrantyActive, h.Warranty.State)
	assert.Equal(t, lifecycle.WarrantyActive, h.SupplierWarranty.State)
	assert.True(t, h.CurrentMatchesLog)

	_, err = e.lookup.DeviceHistory(ctx, "BI-1999-000001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecentMovementsYStats(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	serial := e.availableUnit(t)
	e.availableUnit(t)
	_, err := e.custody.AssignCustody(ctx, inventory.AssignCustodyInput{Serial: serial, HolderID: "emp-1", PerformedBy: "u"})
	require.NoError(t, err)

	recent, err := e.lookup.RecentMovements(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, entity.MovementCustodyAssign, recent[0].Type)
	assert.Equal(t, serial, recent[0].SerialNumber)

	stats, err := e.lookup.MovementStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDevices)
	assert.Equal(t, 1, stats.InCustody)
	assert.Equal(t, 1, stats.ByStatus[entity.StatusAvailable])
	assert.Equal(t, 2, stats.TodayByType[entity.MovementPurchaseReceived])
	assert.Equal(t, 3, stats.TodayMovement)
}

func TestSerialSettings(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	next, err := e.serials.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BI-2026-000001", next)

	_, err = e.serials.Update(ctx, inventory.SerialSettingsUpdate{Prefix: "", YearFormat: "YYYY", Digits: 6})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	updated, err := e.serials.Update(ctx, inventory.SerialSettingsUpdate{Prefix: "EQ", Separator: "/", YearFormat: "YY", Digits: 4})
	require.NoError(t, err)
	assert.Equal(t, "EQ", updated.Prefix)

	b := e.pricedBatch(t, 1)
	res := e.receiveUnit(t, b.Items[0].ID, entity.InspectionPassed)
	assert.Equal(t, "EQ/26/0001", res.Device.SerialNumber)
}

func TestSerialSettings_PrefijoEnMinusculasSigueSiendoBuscable(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	updated, err := e.serials.Update(ctx, inventory.SerialSettingsUpdate{Prefix: "bi", Separator: "-", YearFormat: "YYYY", Digits: 6})
	require.NoError(t, err)
	assert.Equal(t, "BI", updated.Prefix)

	b := e.pricedBatch(t, 1)
	res := e.receiveUnit(t, b.Items[0].ID, entity.InspectionPassed)
	assert.Equal(t, "BI-2026-000001", res.Device.SerialNumber)

	found, err := e.lookup.LookupBySerial(ctx, "bi-2026-000001")
	require.NoError(t, err)
	assert.True(t, found.Found)

	_, err = e.lookup.DeviceHistory(ctx, res.Device.SerialNumber)
	require.NoError(t, err)
	_, err = e.custody.AssignCustody(ctx, inventory.AssignCustodyInput{Serial: res.Device.SerialNumber, HolderID: "emp-1", PerformedBy: "user-1"})
	require.NoError(t, err)
}

func TestReconcile_Run(t *testing.T) {
	e := newEngine(t, nil)
	e.availableUnit(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	// Run termina cuando se cancela el contexto.
	e.recon.Run(ctx, 5*time.Millisecond)
	assert.Error(t, ctx.Err())
}
