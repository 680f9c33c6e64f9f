package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger append-only sobre PostgreSQL. Un trigger rechaza UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador (pool o tx).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `m.id, m.device_id, m.sequence, m.movement_type, m.from_status, m.to_status,
	m.from_warehouse_id, m.to_warehouse_id, m.reference_type, m.reference_id, m.idempotency_key,
	m.performed_by, m.performed_at, m.notes`

func scanMovement(row scanner, extra ...any) (*entity.Movement, error) {
	var m entity.Movement
	var fromWh, toWh, refType, refID, key, notes *string
	dest := []any{&m.ID, &m.DeviceID, &m.Sequence, &m.Type, &m.FromStatus, &m.ToStatus,
		&fromWh, &toWh, &refType, &refID, &key, &m.PerformedBy, &m.PerformedAt, &notes}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	m.FromWarehouseID, m.ToWarehouseID = str(fromWh), str(toWh)
	m.ReferenceType, m.ReferenceID = str(refType), str(refID)
	m.IdempotencyKey, m.Notes = str(key), str(notes)
	return &m, nil
}

// Append inserta el movimiento. Secuencia o clave de idempotencia repetidas dan ErrConcurrencyConflict.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO device_movements (id, device_id, sequence, movement_type, from_status, to_status,
			from_warehouse_id, to_warehouse_id, reference_type, reference_id, idempotency_key,
			performed_by, performed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.ID, m.DeviceID, m.Sequence, m.Type, m.FromStatus, m.ToStatus, nullable(m.FromWarehouseID),
		nullable(m.ToWarehouseID), nullable(m.ReferenceType), nullable(m.ReferenceID),
		nullable(m.IdempotencyKey), m.PerformedBy, m.PerformedAt, nullable(m.Notes),
	)
	if err != nil {
		return mapError("append movement", err)
	}
	return nil
}

func (r *MovementRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		list = append(list, m)
	}
	return list, mapError(op, rows.Err())
}

func (r *MovementRepo) ListByDevice(ctx context.Context, deviceID string) ([]*entity.Movement, error) {
	return r.list(ctx, "list movements",
		`SELECT `+movementColumns+` FROM device_movements m WHERE m.device_id = $1 ORDER BY m.performed_at, m.sequence`,
		deviceID)
}

func (r *MovementRepo) one(ctx context.Context, op, query string, args ...any) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return m, nil
}

func (r *MovementRepo) Last(ctx context.Context, deviceID string) (*entity.Movement, error) {
	return r.one(ctx, "last movement",
		`SELECT `+movementColumns+` FROM device_movements m WHERE m.device_id = $1 ORDER BY m.sequence DESC LIMIT 1`,
		deviceID)
}

func (r *MovementRepo) GetByIdempotencyKey(ctx context.Context, deviceID, key string) (*entity.Movement, error) {
	return r.one(ctx, "get movement by key",
		`SELECT `+movementColumns+` FROM device_movements m WHERE m.device_id = $1 AND m.idempotency_key = $2`,
		deviceID, key)
}

func (r *MovementRepo) feed(ctx context.Context, op, where string, args ...any) ([]*entity.MovementFeedItem, error) {
	query := `SELECT ` + movementColumns + `, d.serial_number, d.product_id
		FROM device_movements m JOIN devices d ON d.id = m.device_id` + where
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()
	var list []*entity.MovementFeedItem
	for rows.Next() {
		var serial string
		var productID *string
		m, err := scanMovement(rows, &serial, &productID)
		if err != nil {
			return nil, mapError(op, err)
		}
		list = append(list, &entity.MovementFeedItem{Movement: *m, SerialNumber: serial, ProductID: str(productID)})
	}
	return list, mapError(op, rows.Err())
}

func (r *MovementRepo) ListRecent(ctx context.Context, limit int) ([]*entity.MovementFeedItem, error) {
	return r.feed(ctx, "recent movements",
		` ORDER BY m.performed_at DESC, d.serial_number DESC LIMIT $1`, limit)
}

func (r *MovementRepo) ListByReference(ctx context.Context, refType, refID string, limit int) ([]*entity.MovementFeedItem, error) {
	return r.feed(ctx, "movements by reference",
		` WHERE m.reference_type = $1 AND m.reference_id = $2 ORDER BY m.performed_at DESC, d.serial_number DESC LIMIT $3`,
		refType, refID, limit)
}

func (r *MovementRepo) CountByTypeSince(ctx context.Context, since time.Time) (map[entity.MovementType]int, error) {
	rows, err := r.q.Query(ctx,
		`SELECT movement_type, COUNT(*) FROM device_movements WHERE performed_at >= $1 GROUP BY movement_type`, since)
	if err != nil {
		return nil, mapError("count movements", err)
	}
	defer rows.Close()
	out := map[entity.MovementType]int{}
	for rows.Next() {
		var t entity.MovementType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, mapError("scan movement count", err)
		}
		out[t] = n
	}
	return out, mapError("count movements", rows.Err())
}

// FindStatusDrift compara el estado cacheado con el ToStatus del último movimiento de cada unidad.
func (r *MovementRepo) FindStatusDrift(ctx context.Context, limit int) ([]entity.StatusDrift, error) {
	rows, err := r.q.Query(ctx, `
		SELECT d.id, d.serial_number, d.status, COALESCE(l.to_status, $1)
		FROM devices d
		LEFT JOIN LATERAL (
			SELECT to_status FROM device_movements WHERE device_id = d.id ORDER BY sequence DESC LIMIT 1
		) l ON true
		WHERE d.status <> COALESCE(l.to_status, $1)
		ORDER BY d.serial_number
		LIMIT $2`, string(entity.StatusNone), limit)
	if err != nil {
		return nil, mapError("find status drift", err)
	}
	defer rows.Close()
	var out []entity.StatusDrift
	for rows.Next() {
		var sd entity.StatusDrift
		if err := rows.Scan(&sd.DeviceID, &sd.SerialNumber, &sd.Cached, &sd.Ledger); err != nil {
			return nil, mapError("scan status drift", err)
		}
		out = append(out, sd)
	}
	return out, mapError("find status drift", rows.Err())
}
