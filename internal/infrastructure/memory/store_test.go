package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

func seedBatch(t *testing.T, runner *TxRunner, quantity int) *entity.PurchaseBatch {
	t.Helper()
	b := &entity.PurchaseBatch{
		ID:            "b-1",
		BatchNumber:   "PO-202610-0001",
		SupplierID:    "sup-1",
		WarehouseID:   "wh-1",
		Status:        entity.BatchReceiving,
		TotalQuantity: quantity,
		CreatedAt:     time.Now(),
		Items:         []*entity.BatchItem{{ID: "it-1", BatchID: "b-1", Description: "Laptop", Quantity: quantity}},
	}
	err := runner.Run(context.Background(), func(ctx context.Context, repos inventory.Repos) error {
		return repos.Batches.Create(ctx, b)
	})
	require.NoError(t, err)
	return b
}

func TestRollback_DescartaEscrituras(t *testing.T) {
	runner := NewTxRunner(New())
	seedBatch(t, runner, 3)

	boom := errors.New("boom")
	err := runner.Run(context.Background(), func(ctx context.Context, repos inventory.Repos) error {
		_, err := repos.Batches.IncrementItemReceived(ctx, "it-1", 2)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	item, err := runner.Reader().Batches.GetItem(context.Background(), "it-1")
	require.NoError(t, err)
	assert.Equal(t, 0, item.ReceivedQuantity)
}

func TestIncrementItemReceived_NoExcedeCantidad(t *testing.T) {
	runner := NewTxRunner(New())
	seedBatch(t, runner, 3)
	ctx := context.Background()

	err := runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		_, err := repos.Batches.IncrementItemReceived(ctx, "it-1", 3)
		return err
	})
	require.NoError(t, err)

	err = runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		_, err := repos.Batches.IncrementItemReceived(ctx, "it-1", 1)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrOverReceipt)

	item, _ := runner.Reader().Batches.GetItem(ctx, "it-1")
	assert.Equal(t, 3, item.ReceivedQuantity)
}

func TestIncrementosConcurrentes_NoPierdenActualizaciones(t *testing.T) {
	runner := NewTxRunner(New())
	seedBatch(t, runner, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
				if _, err := repos.Batches.IncrementItemReceived(ctx, "it-1", 1); err != nil {
					return err
				}
				_, err := repos.Batches.IncrementBatchReceived(ctx, "b-1", 1)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := runner.Reader().Batches.GetByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 50, b.ReceivedQuantity)
	assert.Equal(t, 50, b.Items[0].ReceivedQuantity)
}

func TestGetForUpdate_TimeoutDevuelveConflicto(t *testing.T) {
	runner := NewTxRunner(New(WithLockTimeout(20 * time.Millisecond)))
	seedBatch(t, runner, 1)
	ctx := context.Background()

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
			_, err := repos.Batches.GetForUpdate(ctx, "b-1")
			close(locked)
			<-done
			return err
		})
	}()
	<-locked

	err := runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		_, err := repos.Batches.GetForUpdate(ctx, "b-1")
		return err
	})
	close(done)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestLockTable_LiberaEntradasSinUso(t *testing.T) {
	store := New(WithLockTimeout(20 * time.Millisecond))
	runner := NewTxRunner(store)
	seedBatch(t, runner, 1)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
			_, err := repos.Batches.GetForUpdate(ctx, "b-1")
			return err
		}))
	}
	assert.Equal(t, 0, store.locks.len())

	// Un timeout tampoco deja la entrada colgada.
	require.NoError(t, store.locks.acquire(ctx, "k", time.Second))
	assert.ErrorIs(t, store.locks.acquire(ctx, "k", 5*time.Millisecond), domain.ErrConcurrencyConflict)
	assert.Equal(t, 1, store.locks.len())
	store.locks.release("k")
	assert.Equal(t, 0, store.locks.len())
}

func TestUpdateState_VersionDesactualizada(t *testing.T) {
	runner := NewTxRunner(New())
	ctx := context.Background()
	d := &entity.Device{ID: "d-1", SerialNumber: "BI-2026-000001", Status: entity.StatusAvailable}
	require.NoError(t, runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		return repos.Devices.Create(ctx, d)
	}))

	stale := *d
	require.NoError(t, runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		cur, err := repos.Devices.GetForUpdateBySerial(ctx, d.SerialNumber)
		if err != nil {
			return err
		}
		cur.Status = entity.StatusDamaged
		return repos.Devices.UpdateState(ctx, cur)
	}))

	err := runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		return repos.Devices.UpdateState(ctx, &stale)
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestAppend_ExigeSecuenciaSiguiente(t *testing.T) {
	runner := NewTxRunner(New())
	ctx := context.Background()
	err := runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		if err := repos.Movements.Append(ctx, &entity.Movement{ID: "m1", DeviceID: "d-1", Sequence: 1}); err != nil {
			return err
		}
		return repos.Movements.Append(ctx, &entity.Movement{ID: "m3", DeviceID: "d-1", Sequence: 3})
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	ledger, _ := runner.Reader().Movements.ListByDevice(ctx, "d-1")
	assert.Empty(t, ledger)
}

func TestReader_SoloLectura(t *testing.T) {
	runner := NewTxRunner(New())
	err := runner.Reader().Batches.Create(context.Background(), &entity.PurchaseBatch{ID: "x"})
	assert.Error(t, err)
}

func TestFindStatusDrift(t *testing.T) {
	store := New()
	runner := NewTxRunner(store)
	ctx := context.Background()
	require.NoError(t, runner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
		d := &entity.Device{ID: "d-1", SerialNumber: "BI-2026-000001", Status: entity.StatusAvailable}
		if err := repos.Devices.Create(ctx, d); err != nil {
			return err
		}
		return repos.Movements.Append(ctx, &entity.Movement{ID: "m1", DeviceID: "d-1", Sequence: 1,
			Type: entity.MovementPurchaseReceived, FromStatus: entity.StatusNone, ToStatus: entity.StatusAvailable})
	}))

	drift, err := runner.Reader().Movements.FindStatusDrift(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, drift)

	// Corrupción directa del cache, fuera del motor.
	store.mu.Lock()
	store.devices["d-1"].Status = entity.StatusSold
	store.mu.Unlock()

	drift, err = runner.Reader().Movements.FindStatusDrift(ctx, 10)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, entity.StatusSold, drift[0].Cached)
	assert.Equal(t, entity.StatusAvailable, drift[0].Ledger)
}
