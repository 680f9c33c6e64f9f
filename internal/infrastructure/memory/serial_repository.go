package memory

import (
	"context"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

var _ repository.SerialSequenceRepository = (*SerialSequenceRepository)(nil)

// SerialSequenceRepository contador de seriales en memoria (una sola fila).
type SerialSequenceRepository struct {
	tx *tx
}

func (r *SerialSequenceRepository) current(defaults entity.SerialSettings) *entity.SerialSettings {
	if r.tx.serial != nil {
		c := *r.tx.serial
		return &c
	}
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	if r.tx.s.serial == nil {
		c := defaults
		return &c
	}
	c := *r.tx.s.serial
	return &c
}

func (r *SerialSequenceRepository) GetForUpdate(ctx context.Context, defaults entity.SerialSettings) (*entity.SerialSettings, error) {
	if err := r.tx.lock(ctx, "serial"); err != nil {
		return nil, err
	}
	return r.current(defaults), nil
}

func (r *SerialSequenceRepository) Get(ctx context.Context, defaults entity.SerialSettings) (*entity.SerialSettings, error) {
	return r.current(defaults), nil
}

func (r *SerialSequenceRepository) Save(ctx context.Context, settings *entity.SerialSettings) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if err := r.tx.lock(ctx, "serial"); err != nil {
		return err
	}
	c := *settings
	r.tx.serial = &c
	return nil
}
