package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

var _ repository.DeviceRepository = (*DeviceRepository)(nil)

// DeviceRepository dispositivos serializados en memoria.
type DeviceRepository struct {
	tx *tx
}

func (r *DeviceRepository) Create(ctx context.Context, device *entity.Device) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if r.tx.deviceIDBySerial(device.SerialNumber) != "" {
		return fmt.Errorf("serial duplicado %s: %w", device.SerialNumber, domain.ErrConcurrencyConflict)
	}
	if err := r.tx.lock(ctx, "device:"+device.ID); err != nil {
		return err
	}
	device.Version = 1
	r.tx.devices[device.ID] = cloneDevice(device)
	r.tx.newDevices = append(r.tx.newDevices, device.ID)
	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*entity.Device, error) {
	return r.tx.device(id), nil
}

func (r *DeviceRepository) GetBySerial(ctx context.Context, serial string) (*entity.Device, error) {
	id := r.tx.deviceIDBySerial(serial)
	if id == "" {
		return nil, nil
	}
	return r.tx.device(id), nil
}

func (r *DeviceRepository) GetForUpdateBySerial(ctx context.Context, serial string) (*entity.Device, error) {
	id := r.tx.deviceIDBySerial(serial)
	if id == "" {
		return nil, nil
	}
	if err := r.tx.lock(ctx, "device:"+id); err != nil {
		return nil, err
	}
	return r.tx.device(id), nil
}

func (r *DeviceRepository) GetByIntakeKey(ctx context.Context, key string) (*entity.Device, error) {
	for _, d := range r.tx.devices {
		if d.IntakeKey == key {
			return cloneDevice(d), nil
		}
	}
	r.tx.s.mu.RLock()
	id := r.tx.s.byIntakeKey[key]
	r.tx.s.mu.RUnlock()
	if id == "" {
		return nil, nil
	}
	return r.tx.device(id), nil
}

// UpdateState guarda el estado desnormalizado si la versión coincide y la incrementa.
func (r *DeviceRepository) UpdateState(ctx context.Context, device *entity.Device) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	cur := r.tx.device(device.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	if cur.Version != device.Version {
		return fmt.Errorf("versión %d de %s: %w", device.Version, device.SerialNumber, domain.ErrConcurrencyConflict)
	}
	device.Version++
	next := cloneDevice(device)
	next.SerialNumber = cur.SerialNumber
	next.IntakeKey = cur.IntakeKey
	r.tx.devices[device.ID] = next
	return nil
}

func (r *DeviceRepository) UpdateSellingPrice(ctx context.Context, deviceID string, price decimal.Decimal) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if err := r.tx.lock(ctx, "device:"+deviceID); err != nil {
		return err
	}
	d := r.tx.device(deviceID)
	if d == nil {
		return domain.ErrNotFound
	}
	d.SellingPrice = &price
	r.tx.devices[deviceID] = d
	return nil
}

func (r *DeviceRepository) ListByBatch(ctx context.Context, batchID string) ([]*entity.Device, error) {
	var out []*entity.Device
	for _, d := range r.tx.allDevices() {
		if d.BatchID == batchID {
			out = append(out, d)
		}
	}
	sortBySerial(out)
	return out, nil
}

func (r *DeviceRepository) Search(ctx context.Context, fragment string, limit int) ([]*entity.Device, error) {
	fragment = strings.ToUpper(fragment)
	var out []*entity.Device
	for _, d := range r.tx.allDevices() {
		if strings.Contains(strings.ToUpper(d.SerialNumber), fragment) {
			out = append(out, d)
		}
	}
	sortBySerial(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *DeviceRepository) ListInCustody(ctx context.Context, holderID string) ([]*entity.Device, error) {
	var out []*entity.Device
	for _, d := range r.tx.allDevices() {
		if d.Status != entity.StatusInCustody {
			continue
		}
		if holderID != "" && d.HolderID != holderID {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CustodySince, out[j].CustodySince
		if a == nil || b == nil || a.Equal(*b) {
			return out[i].SerialNumber < out[j].SerialNumber
		}
		return a.Before(*b)
	})
	return out, nil
}

func (r *DeviceRepository) CustodySummary(ctx context.Context) ([]entity.CustodySummary, error) {
	counts := map[string]int{}
	for _, d := range r.tx.allDevices() {
		if d.Status == entity.StatusInCustody {
			counts[d.HolderID]++
		}
	}
	out := make([]entity.CustodySummary, 0, len(counts))
	for h, n := range counts {
		out = append(out, entity.CustodySummary{HolderID: h, ItemCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemCount == out[j].ItemCount {
			return out[i].HolderID < out[j].HolderID
		}
		return out[i].ItemCount > out[j].ItemCount
	})
	return out, nil
}

func (r *DeviceRepository) CountByStatus(ctx context.Context) (map[entity.DeviceStatus]int, error) {
	out := map[entity.DeviceStatus]int{}
	for _, d := range r.tx.allDevices() {
		out[d.Status]++
	}
	return out, nil
}

func sortBySerial(ds []*entity.Device) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].SerialNumber < ds[j].SerialNumber })
}
