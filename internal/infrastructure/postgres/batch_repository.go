package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo lotes de compra e ítems sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, batch_number, supplier_id, warehouse_id, status, total_quantity, received_quantity,
	total_cost, notes, cancel_reason, created_by, priced_by, received_by, created_at, priced_at, received_at, updated_at`

const itemColumns = `id, batch_id, product_id, description, quantity, received_quantity, unit_cost, total_cost, warranty_months, notes`

// NextBatchNumber incrementa el contador del periodo (la fila queda bloqueada hasta el commit).
func (r *BatchRepo) NextBatchNumber(ctx context.Context, period string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		INSERT INTO batch_sequences (period, last_value) VALUES ($1, 1)
		ON CONFLICT (period) DO UPDATE SET last_value = batch_sequences.last_value + 1
		RETURNING last_value`, period).Scan(&n)
	if err != nil {
		return 0, mapError("next batch number", err)
	}
	return n, nil
}

// Create persiste el lote y sus ítems.
func (r *BatchRepo) Create(ctx context.Context, b *entity.PurchaseBatch) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_batches (`+batchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		b.ID, b.BatchNumber, b.SupplierID, b.WarehouseID, b.Status, b.TotalQuantity, b.ReceivedQuantity,
		b.TotalCost, nullable(b.Notes), nullable(b.CancelReason), b.CreatedBy, nullable(b.PricedBy),
		nullable(b.ReceivedBy), b.CreatedAt, b.PricedAt, b.ReceivedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapError("create batch", err)
	}
	for i, it := range b.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO batch_items (id, batch_id, position, product_id, description, quantity, received_quantity, unit_cost, total_cost, warranty_months, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			it.ID, b.ID, i, nullable(it.ProductID), nullable(it.Description), it.Quantity, it.ReceivedQuantity,
			it.UnitCost, it.TotalCost, it.WarrantyMonths, nullable(it.Notes),
		)
		if err != nil {
			return mapError("create batch item", err)
		}
	}
	return nil
}

func scanBatch(row scanner) (*entity.PurchaseBatch, error) {
	var b entity.PurchaseBatch
	var notes, cancelReason, pricedBy, receivedBy *string
	err := row.Scan(&b.ID, &b.BatchNumber, &b.SupplierID, &b.WarehouseID, &b.Status, &b.TotalQuantity,
		&b.ReceivedQuantity, &b.TotalCost, &notes, &cancelReason, &b.CreatedBy, &pricedBy, &receivedBy,
		&b.CreatedAt, &b.PricedAt, &b.ReceivedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Notes, b.CancelReason, b.PricedBy, b.ReceivedBy = str(notes), str(cancelReason), str(pricedBy), str(receivedBy)
	return &b, nil
}

func scanItem(row scanner) (*entity.BatchItem, error) {
	var it entity.BatchItem
	var productID, description, notes *string
	err := row.Scan(&it.ID, &it.BatchID, &productID, &description, &it.Quantity, &it.ReceivedQuantity,
		&it.UnitCost, &it.TotalCost, &it.WarrantyMonths, &notes)
	if err != nil {
		return nil, err
	}
	it.ProductID, it.Description, it.Notes = str(productID), str(description), str(notes)
	return &it, nil
}

func (r *BatchRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.PurchaseBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM purchase_batches WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	b, err := scanBatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get batch", err)
	}
	if b.Items, err = r.items(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BatchRepo) items(ctx context.Context, batchID string) ([]*entity.BatchItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM batch_items WHERE batch_id = $1 ORDER BY position`, batchID)
	if err != nil {
		return nil, mapError("list batch items", err)
	}
	defer rows.Close()
	var list []*entity.BatchItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, mapError("scan batch item", err)
		}
		list = append(list, it)
	}
	return list, mapError("list batch items", rows.Err())
}

// GetByID lote con ítems; (nil, nil) si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseBatch, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la fila del lote (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseBatch, error) {
	return r.get(ctx, id, true)
}

// GetItem obtiene un ítem por ID.
func (r *BatchRepo) GetItem(ctx context.Context, itemID string) (*entity.BatchItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM batch_items WHERE id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get batch item", err)
	}
	return it, nil
}

// Update guarda estado y metadatos. received_quantity solo cambia vía IncrementBatchReceived.
func (r *BatchRepo) Update(ctx context.Context, b *entity.PurchaseBatch) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE purchase_batches SET status = $2, total_quantity = $3, total_cost = $4, notes = $5,
			cancel_reason = $6, priced_by = $7, received_by = $8, priced_at = $9, received_at = $10, updated_at = $11
		WHERE id = $1`,
		b.ID, b.Status, b.TotalQuantity, b.TotalCost, nullable(b.Notes), nullable(b.CancelReason),
		nullable(b.PricedBy), nullable(b.ReceivedBy), b.PricedAt, b.ReceivedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapError("update batch", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateItem guarda cantidad, descripción, costos y notas. received_quantity no se toca.
func (r *BatchRepo) UpdateItem(ctx context.Context, it *entity.BatchItem) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE batch_items SET quantity = $2, description = $3, unit_cost = $4, total_cost = $5, notes = $6
		WHERE id = $1`,
		it.ID, it.Quantity, nullable(it.Description), it.UnitCost, it.TotalCost, nullable(it.Notes),
	)
	if err != nil {
		return mapError("update batch item", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementItemReceived incremento atómico con guarda: nunca supera la cantidad solicitada.
func (r *BatchRepo) IncrementItemReceived(ctx context.Context, itemID string, count int) (int, error) {
	var received int
	err := r.q.QueryRow(ctx, `
		UPDATE batch_items SET received_quantity = received_quantity + $2
		WHERE id = $1 AND received_quantity + $2 <= quantity
		RETURNING received_quantity`, itemID, count).Scan(&received)
	if err == nil {
		return received, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapError("increment item received", err)
	}
	return 0, r.guardFailure(ctx, `SELECT received_quantity FROM batch_items WHERE id = $1`, itemID)
}

// IncrementBatchReceived mismo incremento sobre el agregado del lote, en la misma tx que el ítem.
func (r *BatchRepo) IncrementBatchReceived(ctx context.Context, batchID string, count int) (int, error) {
	var received int
	err := r.q.QueryRow(ctx, `
		UPDATE purchase_batches SET received_quantity = received_quantity + $2, updated_at = now()
		WHERE id = $1 AND received_quantity + $2 <= total_quantity
		RETURNING received_quantity`, batchID, count).Scan(&received)
	if err == nil {
		return received, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapError("increment batch received", err)
	}
	return 0, r.guardFailure(ctx, `SELECT received_quantity FROM purchase_batches WHERE id = $1`, batchID)
}

// guardFailure distingue fila inexistente de guarda violada.
func (r *BatchRepo) guardFailure(ctx context.Context, query, id string) error {
	var current int
	err := r.q.QueryRow(ctx, query, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return mapError("check received", err)
	}
	return domain.ErrOverReceipt
}

// List lotes filtrados con sus ítems, más recientes primero.
func (r *BatchRepo) List(ctx context.Context, f entity.BatchFilter) ([]*entity.PurchaseBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM purchase_batches WHERE 1=1`
	args := []any{}
	pos := 1
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	if f.SupplierID != "" {
		query += fmt.Sprintf(" AND supplier_id = $%d", pos)
		args = append(args, f.SupplierID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, batch_number DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list batches", err)
	}
	var list []*entity.PurchaseBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			rows.Close()
			return nil, mapError("scan batch", err)
		}
		list = append(list, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list batches", err)
	}
	for _, b := range list {
		if b.Items, err = r.items(ctx, b.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// CountByStatus cantidad de lotes por estado.
func (r *BatchRepo) CountByStatus(ctx context.Context) (map[entity.BatchStatus]int, error) {
	rows, err := r.q.Query(ctx, `SELECT status, COUNT(*) FROM purchase_batches GROUP BY status`)
	if err != nil {
		return nil, mapError("count batches", err)
	}
	defer rows.Close()
	out := map[entity.BatchStatus]int{}
	for rows.Next() {
		var s entity.BatchStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, mapError("scan batch count", err)
		}
		out[s] = n
	}
	return out, mapError("count batches", rows.Err())
}
