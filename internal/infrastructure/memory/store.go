// Package memory implementa los repositorios del motor en memoria, para desarrollo y tests.
// Cada transacción bloquea por clave las entidades que lee con GetForUpdate y deja sus
// escrituras en un área temporal que se aplica completa en Commit o se descarta en Rollback.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// Store estado confirmado. Todo acceso pasa por mu.
type Store struct {
	mu sync.RWMutex

	batches     map[string]*entity.PurchaseBatch // sin Items
	items       map[string]*entity.BatchItem
	batchItems  map[string][]string // batchID -> itemIDs en orden
	batchSeq    map[string]int      // periodo YYYYMM -> último número
	devices     map[string]*entity.Device
	bySerial    map[string]string
	byIntakeKey map[string]string
	movements   map[string][]*entity.Movement // deviceID -> ledger ordenado
	serial      *entity.SerialSettings

	locks       *lockTable
	lockTimeout time.Duration
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout tiempo máximo esperando un bloqueo antes de devolver ErrConcurrencyConflict.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// New crea un Store vacío.
func New(opts ...Option) *Store {
	s := &Store{
		batches:     map[string]*entity.PurchaseBatch{},
		items:       map[string]*entity.BatchItem{},
		batchItems:  map[string][]string{},
		batchSeq:    map[string]int{},
		devices:     map[string]*entity.Device{},
		bySerial:    map[string]string{},
		byIntakeKey: map[string]string{},
		movements:   map[string][]*entity.Movement{},
		locks:       newLockTable(),
		lockTimeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lockTable mutex por clave. Un canal con buffer 1 permite esperar con ctx y timeout.
// La entrada de una clave vive mientras alguien la tenga o la espere.
type lockTable struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int // dueño + transacciones esperando
}

func newLockTable() *lockTable {
	return &lockTable{m: map[string]*keyLock{}}
}

func (l *lockTable) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	k, ok := l.m[key]
	if !ok {
		k = &keyLock{ch: make(chan struct{}, 1)}
		l.m[key] = k
	}
	k.refs++
	return k
}

func (l *lockTable) unref(key string, k *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.m, key)
	}
}

func (l *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	k := l.ref(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case k.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key, k)
		return ctx.Err()
	case <-timer.C:
		l.unref(key, k)
		return fmt.Errorf("lock %s: %w", key, domain.ErrConcurrencyConflict)
	}
}

func (l *lockTable) release(key string) {
	l.mu.Lock()
	k := l.m[key]
	l.mu.Unlock()
	if k == nil {
		return
	}
	<-k.ch
	l.unref(key, k)
}

func (l *lockTable) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func cloneBatch(b *entity.PurchaseBatch) *entity.PurchaseBatch {
	if b == nil {
		return nil
	}
	c := *b
	c.TotalCost = cloneDecimal(b.TotalCost)
	c.PricedAt = cloneTime(b.PricedAt)
	c.ReceivedAt = cloneTime(b.ReceivedAt)
	c.Items = nil
	return &c
}

func cloneItem(it *entity.BatchItem) *entity.BatchItem {
	if it == nil {
		return nil
	}
	c := *it
	c.UnitCost = cloneDecimal(it.UnitCost)
	c.TotalCost = cloneDecimal(it.TotalCost)
	return &c
}

func cloneDevice(d *entity.Device) *entity.Device {
	if d == nil {
		return nil
	}
	c := *d
	c.CustodySince = cloneTime(d.CustodySince)
	c.SaleDate = cloneTime(d.SaleDate)
	c.WarrantyStart = cloneTime(d.WarrantyStart)
	c.WarrantyEnd = cloneTime(d.WarrantyEnd)
	c.SupplierWarrantyEnd = cloneTime(d.SupplierWarrantyEnd)
	c.PurchaseCost = cloneDecimal(d.PurchaseCost)
	c.SellingPrice = cloneDecimal(d.SellingPrice)
	if d.Defects != nil {
		c.Defects = append([]string(nil), d.Defects...)
	}
	if d.ActualSpecs != nil {
		c.ActualSpecs = make(map[string]string, len(d.ActualSpecs))
		for k, v := range d.ActualSpecs {
			c.ActualSpecs[k] = v
		}
	}
	return &c
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	c := *m
	return &c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
