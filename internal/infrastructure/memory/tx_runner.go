package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción en memoria.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repos atados a una tx nueva; Commit si fn no falla, descarte si falla.
// Los bloqueos tomados con GetForUpdate se liberan al terminar.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	t := newTx(r.store, false)
	defer t.releaseAll()
	if err := fn(ctx, t.repos()); err != nil {
		return err
	}
	return t.commit()
}

// Reader repos sin transacción: leen el estado confirmado y rechazan escrituras.
func (r *TxRunner) Reader() inventory.Repos {
	return newTx(r.store, true).repos()
}

var errReadOnly = errors.New("memory: repositorio de solo lectura")

// tx escrituras pendientes de una transacción.
type tx struct {
	s        *Store
	readOnly bool
	held     map[string]bool

	batches    map[string]*entity.PurchaseBatch
	items      map[string]*entity.BatchItem
	batchItems map[string][]string
	batchSeq   map[string]int
	devices    map[string]*entity.Device
	newDevices []string
	appended   map[string][]*entity.Movement
	serial     *entity.SerialSettings
}

func newTx(s *Store, readOnly bool) *tx {
	return &tx{
		s:          s,
		readOnly:   readOnly,
		held:       map[string]bool{},
		batches:    map[string]*entity.PurchaseBatch{},
		items:      map[string]*entity.BatchItem{},
		batchItems: map[string][]string{},
		batchSeq:   map[string]int{},
		devices:    map[string]*entity.Device{},
		appended:   map[string][]*entity.Movement{},
	}
}

func (t *tx) repos() inventory.Repos {
	return inventory.Repos{
		Batches:   &BatchRepository{tx: t},
		Devices:   &DeviceRepository{tx: t},
		Movements: &MovementRepository{tx: t},
		Serials:   &SerialSequenceRepository{tx: t},
	}
}

// lock toma el mutex de key una sola vez por tx.
func (t *tx) lock(ctx context.Context, key string) error {
	if t.readOnly || t.held[key] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.held[key] = true
	return nil
}

func (t *tx) releaseAll() {
	for key := range t.held {
		t.s.locks.release(key)
	}
	t.held = nil
}

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

// commit valida unicidad y aplica todo bajo el lock global del Store.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range t.newDevices {
		d := t.devices[id]
		if _, dup := s.bySerial[d.SerialNumber]; dup {
			return fmt.Errorf("serial duplicado %s: %w", d.SerialNumber, domain.ErrConcurrencyConflict)
		}
		if d.IntakeKey != "" {
			if _, dup := s.byIntakeKey[d.IntakeKey]; dup {
				return fmt.Errorf("clave de recepción duplicada: %w", domain.ErrConcurrencyConflict)
			}
		}
	}
	for deviceID, movs := range t.appended {
		next := len(s.movements[deviceID]) + 1
		for _, m := range movs {
			if m.Sequence != next {
				return fmt.Errorf("secuencia %d de %s: %w", m.Sequence, deviceID, domain.ErrConcurrencyConflict)
			}
			next++
		}
	}

	for id, b := range t.batches {
		s.batches[id] = b
	}
	for id, it := range t.items {
		s.items[id] = it
	}
	for id, ids := range t.batchItems {
		s.batchItems[id] = ids
	}
	for p, n := range t.batchSeq {
		s.batchSeq[p] = n
	}
	for id, d := range t.devices {
		s.devices[id] = d
		s.bySerial[d.SerialNumber] = id
		if d.IntakeKey != "" {
			s.byIntakeKey[d.IntakeKey] = id
		}
	}
	for id, movs := range t.appended {
		s.movements[id] = append(s.movements[id], movs...)
	}
	if t.serial != nil {
		s.serial = t.serial
	}
	return nil
}

// Lecturas con overlay: primero lo pendiente de la tx, luego lo confirmado.

func (t *tx) batch(id string) *entity.PurchaseBatch {
	if b, ok := t.batches[id]; ok {
		return cloneBatch(b)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return cloneBatch(t.s.batches[id])
}

func (t *tx) item(id string) *entity.BatchItem {
	if it, ok := t.items[id]; ok {
		return cloneItem(it)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return cloneItem(t.s.items[id])
}

func (t *tx) itemIDs(batchID string) []string {
	if ids, ok := t.batchItems[batchID]; ok {
		return ids
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.batchItems[batchID]
}

func (t *tx) withItems(b *entity.PurchaseBatch) *entity.PurchaseBatch {
	if b == nil {
		return nil
	}
	for _, id := range t.itemIDs(b.ID) {
		if it := t.item(id); it != nil {
			b.Items = append(b.Items, it)
		}
	}
	return b
}

func (t *tx) device(id string) *entity.Device {
	if d, ok := t.devices[id]; ok {
		return cloneDevice(d)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return cloneDevice(t.s.devices[id])
}

func (t *tx) deviceIDBySerial(serial string) string {
	for id, d := range t.devices {
		if d.SerialNumber == serial {
			return id
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.bySerial[serial]
}

// ledger movimientos confirmados más los agregados en la tx.
func (t *tx) ledger(deviceID string) []*entity.Movement {
	t.s.mu.RLock()
	committed := t.s.movements[deviceID]
	out := make([]*entity.Movement, 0, len(committed)+len(t.appended[deviceID]))
	for _, m := range committed {
		out = append(out, cloneMovement(m))
	}
	t.s.mu.RUnlock()
	for _, m := range t.appended[deviceID] {
		out = append(out, cloneMovement(m))
	}
	return out
}

// allDevices instantánea confirmada más pendientes, para consultas de listado.
func (t *tx) allDevices() []*entity.Device {
	t.s.mu.RLock()
	out := make([]*entity.Device, 0, len(t.s.devices)+len(t.devices))
	for id, d := range t.s.devices {
		if _, staged := t.devices[id]; staged {
			continue
		}
		out = append(out, cloneDevice(d))
	}
	t.s.mu.RUnlock()
	for _, d := range t.devices {
		out = append(out, cloneDevice(d))
	}
	return out
}
