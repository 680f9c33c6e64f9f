package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepository)(nil)

// BatchRepository lotes e ítems en memoria.
type BatchRepository struct {
	tx *tx
}

func (r *BatchRepository) NextBatchNumber(ctx context.Context, period string) (int, error) {
	if err := r.tx.writable(); err != nil {
		return 0, err
	}
	if err := r.tx.lock(ctx, "batchseq:"+period); err != nil {
		return 0, err
	}
	n, ok := r.tx.batchSeq[period]
	if !ok {
		r.tx.s.mu.RLock()
		n = r.tx.s.batchSeq[period]
		r.tx.s.mu.RUnlock()
	}
	n++
	r.tx.batchSeq[period] = n
	return n, nil
}

func (r *BatchRepository) Create(ctx context.Context, batch *entity.PurchaseBatch) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	if r.tx.batch(batch.ID) != nil {
		return domain.ErrConcurrencyConflict
	}
	ids := make([]string, 0, len(batch.Items))
	for _, it := range batch.Items {
		r.tx.items[it.ID] = cloneItem(it)
		ids = append(ids, it.ID)
	}
	r.tx.batches[batch.ID] = cloneBatch(batch)
	r.tx.batchItems[batch.ID] = ids
	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id string) (*entity.PurchaseBatch, error) {
	return r.tx.withItems(r.tx.batch(id)), nil
}

func (r *BatchRepository) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseBatch, error) {
	if err := r.tx.lock(ctx, "batch:"+id); err != nil {
		return nil, err
	}
	return r.tx.withItems(r.tx.batch(id)), nil
}

func (r *BatchRepository) GetItem(ctx context.Context, itemID string) (*entity.BatchItem, error) {
	return r.tx.item(itemID), nil
}

// Update guarda estado y metadatos del lote. Los contadores solo cambian por IncrementBatchReceived.
func (r *BatchRepository) Update(ctx context.Context, batch *entity.PurchaseBatch) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	cur := r.tx.batch(batch.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	next := cloneBatch(batch)
	next.ReceivedQuantity = cur.ReceivedQuantity
	r.tx.batches[batch.ID] = next
	return nil
}

func (r *BatchRepository) UpdateItem(ctx context.Context, item *entity.BatchItem) error {
	if err := r.tx.writable(); err != nil {
		return err
	}
	cur := r.tx.item(item.ID)
	if cur == nil {
		return domain.ErrNotFound
	}
	next := cloneItem(item)
	next.ReceivedQuantity = cur.ReceivedQuantity
	r.tx.items[item.ID] = next
	return nil
}

func (r *BatchRepository) IncrementItemReceived(ctx context.Context, itemID string, count int) (int, error) {
	if err := r.tx.writable(); err != nil {
		return 0, err
	}
	if err := r.tx.lock(ctx, "item:"+itemID); err != nil {
		return 0, err
	}
	it := r.tx.item(itemID)
	if it == nil {
		return 0, domain.ErrNotFound
	}
	if it.ReceivedQuantity+count > it.Quantity {
		return it.ReceivedQuantity, domain.ErrOverReceipt
	}
	it.ReceivedQuantity += count
	r.tx.items[itemID] = it
	return it.ReceivedQuantity, nil
}

func (r *BatchRepository) IncrementBatchReceived(ctx context.Context, batchID string, count int) (int, error) {
	if err := r.tx.writable(); err != nil {
		return 0, err
	}
	if err := r.tx.lock(ctx, "batch:"+batchID); err != nil {
		return 0, err
	}
	b := r.tx.batch(batchID)
	if b == nil {
		return 0, domain.ErrNotFound
	}
	if b.ReceivedQuantity+count > b.TotalQuantity {
		return b.ReceivedQuantity, domain.ErrOverReceipt
	}
	b.ReceivedQuantity += count
	r.tx.batches[batchID] = b
	return b.ReceivedQuantity, nil
}

func (r *BatchRepository) List(ctx context.Context, filter entity.BatchFilter) ([]*entity.PurchaseBatch, error) {
	r.tx.s.mu.RLock()
	ids := make([]string, 0, len(r.tx.s.batches))
	for id := range r.tx.s.batches {
		ids = append(ids, id)
	}
	r.tx.s.mu.RUnlock()

	var out []*entity.PurchaseBatch
	for _, id := range ids {
		b := r.tx.batch(id)
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.SupplierID != "" && b.SupplierID != filter.SupplierID {
			continue
		}
		out = append(out, r.tx.withItems(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].BatchNumber > out[j].BatchNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset >= len(out) {
		return []*entity.PurchaseBatch{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *BatchRepository) CountByStatus(ctx context.Context) (map[entity.BatchStatus]int, error) {
	r.tx.s.mu.RLock()
	defer r.tx.s.mu.RUnlock()
	out := map[entity.BatchStatus]int{}
	for _, b := range r.tx.s.batches {
		out[b.Status]++
	}
	return out, nil
}
