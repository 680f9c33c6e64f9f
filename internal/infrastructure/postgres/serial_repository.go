package postgres

import (
	"context"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

var _ repository.SerialSequenceRepository = (*SerialSequenceRepo)(nil)

// SerialSequenceRepo contador centralizado de seriales: una sola fila (id = 1).
type SerialSequenceRepo struct {
	q Querier
}

// NewSerialSequenceRepository construye el adaptador (pool o tx).
func NewSerialSequenceRepository(q Querier) *SerialSequenceRepo {
	return &SerialSequenceRepo{q: q}
}

const serialColumns = `prefix, separator, year_format, digits, reset_yearly, current_year, current_sequence, updated_at`

func (r *SerialSequenceRepo) ensure(ctx context.Context, d entity.SerialSettings) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO serial_settings (id, prefix, separator, year_format, digits, reset_yearly, current_year, current_sequence)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		d.Prefix, d.Separator, d.YearFormat, d.Digits, d.ResetYearly, d.CurrentYear, d.CurrentSequence)
	return mapError("ensure serial settings", err)
}

func (r *SerialSequenceRepo) read(ctx context.Context, op, query string) (*entity.SerialSettings, error) {
	var s entity.SerialSettings
	err := r.q.QueryRow(ctx, query).Scan(&s.Prefix, &s.Separator, &s.YearFormat, &s.Digits, &s.ResetYearly,
		&s.CurrentYear, &s.CurrentSequence, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	return &s, nil
}

// GetForUpdate crea la fila con los defaults si falta y la bloquea hasta el fin de la tx.
// Todas las recepciones se serializan aquí: es el único punto de emisión de seriales.
func (r *SerialSequenceRepo) GetForUpdate(ctx context.Context, defaults entity.SerialSettings) (*entity.SerialSettings, error) {
	if err := r.ensure(ctx, defaults); err != nil {
		return nil, err
	}
	return r.read(ctx, "lock serial settings", `SELECT `+serialColumns+` FROM serial_settings WHERE id = 1 FOR UPDATE`)
}

// Get lectura sin bloqueo; si aún no existe la fila devuelve los defaults.
func (r *SerialSequenceRepo) Get(ctx context.Context, defaults entity.SerialSettings) (*entity.SerialSettings, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM serial_settings WHERE id = 1)`).Scan(&exists); err != nil {
		return nil, mapError("check serial settings", err)
	}
	if !exists {
		c := defaults
		return &c, nil
	}
	return r.read(ctx, "get serial settings", `SELECT `+serialColumns+` FROM serial_settings WHERE id = 1`)
}

func (r *SerialSequenceRepo) Save(ctx context.Context, s *entity.SerialSettings) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO serial_settings (id, prefix, separator, year_format, digits, reset_yearly, current_year, current_sequence, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET prefix = EXCLUDED.prefix, separator = EXCLUDED.separator,
			year_format = EXCLUDED.year_format, digits = EXCLUDED.digits, reset_yearly = EXCLUDED.reset_yearly,
			current_year = EXCLUDED.current_year, current_sequence = EXCLUDED.current_sequence,
			updated_at = EXCLUDED.updated_at`,
		s.Prefix, s.Separator, s.YearFormat, s.Digits, s.ResetYearly, s.CurrentYear, s.CurrentSequence, s.UpdatedAt)
	return mapError("save serial settings", err)
}
