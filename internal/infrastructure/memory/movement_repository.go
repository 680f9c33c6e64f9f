package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepository)(nil)

// MovementRepository ledger append-only en memoria.
type MovementRepository struct {
	tx *tx
}

// Append agrega al final del ledger del dispositivo. La secuencia debe ser la siguiente.
func (r *MovementRepository) Append(ctx context.Context, m *entity.Movement) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	ledger := r.tx.ledger(m.DeviceID)
	if m.Sequence != len(ledger)+1 {
		return fmt.Errorf("secuencia %d de %s: %w", m.Sequence, m.DeviceID, domain.ErrConcurrencyConflict)
	}
	if m.IdempotencyKey != "" {
		for _, prev := range ledger {
			if prev.IdempotencyKey == m.IdempotencyKey {
				return fmt.Errorf("clave de idempotencia repetida: %w", domain.ErrConcurrencyConflict)
			}
		}
	}
	r.tx.appended[m.DeviceID] = append(r.tx.appended[m.DeviceID], cloneMovement(m))
	return nil
}

func (r *MovementRepository) ListByDevice(ctx context.Context, deviceID string) ([]*entity.Movement, error) {
	return r.tx.ledger(deviceID), nil
}

func (r *MovementRepository) Last(ctx context.Context, deviceID string) (*entity.Movement, error) {
	ledger := r.tx.ledger(deviceID)
	if len(ledger) == 0 {
		return nil, nil
	}
	return ledger[len(ledger)-1], nil
}

func (r *MovementRepository) GetByIdempotencyKey(ctx context.Context, deviceID, key string) (*entity.Movement, error) {
	for _, m := range r.tx.ledger(deviceID) {
		if m.IdempotencyKey == key {
			return m, nil
		}
	}
	return nil, nil
}

// feed todos los movimientos con serial y producto, del más reciente al más antiguo.
func (r *MovementRepository) feed(match func(*entity.Movement) bool) []*entity.MovementFeedItem {
	var out []*entity.MovementFeedItem
	for _, d := range r.tx.allDevices() {
		for _, m := range r.tx.ledger(d.ID) {
			if match != nil && !match(m) {
				continue
			}
			out = append(out, &entity.MovementFeedItem{Movement: *m, SerialNumber: d.SerialNumber, ProductID: d.ProductID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PerformedAt.Equal(out[j].PerformedAt) {
			return out[i].SerialNumber > out[j].SerialNumber
		}
		return out[i].PerformedAt.After(out[j].PerformedAt)
	})
	return out
}

func (r *MovementRepository) ListRecent(ctx context.Context, limit int) ([]*entity.MovementFeedItem, error) {
	out := r.feed(nil)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MovementRepository) ListByReference(ctx context.Context, refType, refID string, limit int) ([]*entity.MovementFeedItem, error) {
	out := r.feed(func(m *entity.Movement) bool { return m.ReferenceType == refType && m.ReferenceID == refID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MovementRepository) CountByTypeSince(ctx context.Context, since time.Time) (map[entity.MovementType]int, error) {
	out := map[entity.MovementType]int{}
	for _, it := range r.feed(func(m *entity.Movement) bool { return !m.PerformedAt.Before(since) }) {
		out[it.Type]++
	}
	return out, nil
}

func (r *MovementRepository) FindStatusDrift(ctx context.Context, limit int) ([]entity.StatusDrift, error) {
	var out []entity.StatusDrift
	devices := r.tx.allDevices()
	sortBySerial(devices)
	for _, d := range devices {
		ledger := r.tx.ledger(d.ID)
		var last entity.DeviceStatus = entity.StatusNone
		if len(ledger) > 0 {
			last = ledger[len(ledger)-1].ToStatus
		}
		if last != d.Status {
			out = append(out, entity.StatusDrift{DeviceID: d.ID, SerialNumber: d.SerialNumber, Cached: d.Status, Ledger: last})
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
