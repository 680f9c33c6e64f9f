package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

var _ repository.DeviceRepository = (*DeviceRepo)(nil)

// DeviceRepo dispositivos serializados sobre PostgreSQL.
type DeviceRepo struct {
	q Querier
}

// NewDeviceRepository construye el adaptador (pool o tx).
func NewDeviceRepository(q Querier) *DeviceRepo {
	return &DeviceRepo{q: q}
}

const deviceColumns = `id, serial_number, batch_id, batch_item_id, supplier_id, product_id, description, warehouse_id,
	status, holder_id, custody_since, custody_reason, customer_id, sale_date, inspection_outcome, condition,
	defects, actual_specs, purchase_cost, selling_price, warranty_months, warranty_start, warranty_end,
	supplier_warranty_end, intake_key, notes, version, created_by, created_at, updated_at`

func scanDevice(row scanner) (*entity.Device, error) {
	var d entity.Device
	var productID, description, holderID, custodyReason, customerID, condition, intakeKey, notes *string
	err := row.Scan(&d.ID, &d.SerialNumber, &d.BatchID, &d.BatchItemID, &d.SupplierID, &productID, &description,
		&d.WarehouseID, &d.Status, &holderID, &d.CustodySince, &custodyReason, &customerID, &d.SaleDate,
		&d.Inspection, &condition, &d.Defects, &d.ActualSpecs, &d.PurchaseCost, &d.SellingPrice,
		&d.WarrantyMonths, &d.WarrantyStart, &d.WarrantyEnd, &d.SupplierWarrantyEnd, &intakeKey, &notes,
		&d.Version, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.ProductID, d.Description, d.HolderID = str(productID), str(description), str(holderID)
	d.CustodyReason, d.CustomerID, d.Condition = str(custodyReason), str(customerID), str(condition)
	d.IntakeKey, d.Notes = str(intakeKey), str(notes)
	return &d, nil
}

func (r *DeviceRepo) one(ctx context.Context, op, where string, arg any) (*entity.Device, error) {
	d, err := scanDevice(r.q.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return d, nil
}

func (r *DeviceRepo) many(ctx context.Context, op, query string, args ...any) ([]*entity.Device, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()
	var list []*entity.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		list = append(list, d)
	}
	return list, mapError(op, rows.Err())
}

// Create inserta la unidad con versión 1. Serial o intake_key repetidos dan ErrConcurrencyConflict.
func (r *DeviceRepo) Create(ctx context.Context, d *entity.Device) error {
	d.Version = 1
	_, err := r.q.Exec(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`,
		d.ID, d.SerialNumber, d.BatchID, d.BatchItemID, d.SupplierID, nullable(d.ProductID), nullable(d.Description),
		d.WarehouseID, d.Status, nullable(d.HolderID), d.CustodySince, nullable(d.CustodyReason),
		nullable(d.CustomerID), d.SaleDate, d.Inspection, nullable(d.Condition), d.Defects, d.ActualSpecs,
		d.PurchaseCost, d.SellingPrice, d.WarrantyMonths, d.WarrantyStart, d.WarrantyEnd, d.SupplierWarrantyEnd,
		nullable(d.IntakeKey), nullable(d.Notes), d.Version, d.CreatedBy, d.CreatedAt, d.UpdatedAt,
	)
	return mapError("create device", err)
}

func (r *DeviceRepo) GetByID(ctx context.Context, id string) (*entity.Device, error) {
	return r.one(ctx, "get device", "id = $1", id)
}

func (r *DeviceRepo) GetBySerial(ctx context.Context, serial string) (*entity.Device, error) {
	return r.one(ctx, "get device by serial", "serial_number = $1", serial)
}

func (r *DeviceRepo) GetForUpdateBySerial(ctx context.Context, serial string) (*entity.Device, error) {
	return r.one(ctx, "lock device", "serial_number = $1 FOR UPDATE", serial)
}

func (r *DeviceRepo) GetByIntakeKey(ctx context.Context, key string) (*entity.Device, error) {
	return r.one(ctx, "get device by intake key", "intake_key = $1", key)
}

// UpdateState guarda el estado desnormalizado solo si la versión no cambió; luego la incrementa.
func (r *DeviceRepo) UpdateState(ctx context.Context, d *entity.Device) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE devices SET warehouse_id = $3, status = $4, holder_id = $5, custody_since = $6, custody_reason = $7,
			customer_id = $8, sale_date = $9, condition = $10, defects = $11, actual_specs = $12, selling_price = $13,
			warranty_start = $14, warranty_end = $15, notes = $16, updated_at = $17, version = version + 1
		WHERE id = $1 AND version = $2`,
		d.ID, d.Version, d.WarehouseID, d.Status, nullable(d.HolderID), d.CustodySince, nullable(d.CustodyReason),
		nullable(d.CustomerID), d.SaleDate, nullable(d.Condition), d.Defects, d.ActualSpecs, d.SellingPrice,
		d.WarrantyStart, d.WarrantyEnd, nullable(d.Notes), d.UpdatedAt,
	)
	if err != nil {
		return mapError("update device", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("versión %d de %s: %w", d.Version, d.SerialNumber, domain.ErrConcurrencyConflict)
	}
	d.Version++
	return nil
}

func (r *DeviceRepo) UpdateSellingPrice(ctx context.Context, deviceID string, price decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE devices SET selling_price = $2, updated_at = now() WHERE id = $1`, deviceID, price)
	if err != nil {
		return mapError("update selling price", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DeviceRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.Device, error) {
	return r.many(ctx, "list devices by batch",
		`SELECT `+deviceColumns+` FROM devices WHERE batch_id = $1 ORDER BY serial_number`, batchID)
}

// escapeLike escapa comodines de LIKE para buscar el fragmento literal.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *DeviceRepo) Search(ctx context.Context, fragment string, limit int) ([]*entity.Device, error) {
	return r.many(ctx, "search devices",
		`SELECT `+deviceColumns+` FROM devices WHERE serial_number ILIKE $1 ESCAPE '\' ORDER BY serial_number LIMIT $2`,
		"%"+escapeLike(fragment)+"%", limit)
}

// ListInCustody unidades en custodia; holderID vacío lista todas.
func (r *DeviceRepo) ListInCustody(ctx context.Context, holderID string) ([]*entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE status = 'in_custody'`
	args := []any{}
	if holderID != "" {
		query += ` AND holder_id = $1`
		args = append(args, holderID)
	}
	query += ` ORDER BY custody_since, serial_number`
	return r.many(ctx, "list devices in custody", query, args...)
}

func (r *DeviceRepo) CustodySummary(ctx context.Context) ([]entity.CustodySummary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT holder_id, COUNT(*) FROM devices
		WHERE status = 'in_custody'
		GROUP BY holder_id
		ORDER BY COUNT(*) DESC, holder_id`)
	if err != nil {
		return nil, mapError("custody summary", err)
	}
	defer rows.Close()
	out := []entity.CustodySummary{}
	for rows.Next() {
		var holder *string
		var n int
		if err := rows.Scan(&holder, &n); err != nil {
			return nil, mapError("scan custody summary", err)
		}
		out = append(out, entity.CustodySummary{HolderID: str(holder), ItemCount: n})
	}
	return out, mapError("custody summary", rows.Err())
}

func (r *DeviceRepo) CountByStatus(ctx context.Context) (map[entity.DeviceStatus]int, error) {
	rows, err := r.q.Query(ctx, `SELECT status, COUNT(*) FROM devices GROUP BY status`)
	if err != nil {
		return nil, mapError("count devices", err)
	}
	defer rows.Close()
	out := map[entity.DeviceStatus]int{}
	for rows.Next() {
		var s entity.DeviceStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, mapError("scan device count", err)
		}
		out[s] = n
	}
	return out, mapError("count devices", rows.Err())
}
