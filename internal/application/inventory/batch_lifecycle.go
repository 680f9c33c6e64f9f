package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

// BatchLifecycleUseCase dueño de la máquina de estados del lote de compra.
type BatchLifecycleUseCase struct {
	txRunner  TxRunner
	directory Directory
	settings  Settings
}

// NewBatchLifecycleUseCase construye el caso de uso.
func NewBatchLifecycleUseCase(txRunner TxRunner, directory Directory, settings Settings) *BatchLifecycleUseCase {
	return &BatchLifecycleUseCase{txRunner: txRunner, directory: directory, settings: settings}
}

// NewItem línea solicitada al crear un lote. No lleva precio.
type NewItem struct {
	ProductID      string
	Description    string
	Quantity       int
	WarrantyMonths int
	Notes          string
}

// CreateBatchInput entrada de CreateBatch.
type CreateBatchInput struct {
	SupplierID  string
	WarehouseID string
	Items       []NewItem
	Notes       string
	CreatedBy   string
}

// ItemPrice costo unitario para un ítem.
type ItemPrice struct {
	ItemID   string
	UnitCost decimal.Decimal
}

// ItemUpdate cambios permitidos sobre un ítem antes de recibir. Los nil no se tocan.
type ItemUpdate struct {
	Quantity    *int
	Description *string
	Notes       *string
}

// SellingPrice precio de venta por dispositivo al marcar el lote listo para vender.
type SellingPrice struct {
	Serial string
	Price  decimal.Decimal
}

func (in CreateBatchInput) validate() error {
	if strings.TrimSpace(in.SupplierID) == "" {
		return domain.Invalid("supplier_id", "requerido")
	}
	if in.CreatedBy == "" {
		return domain.Invalid("created_by", "requerido")
	}
	if len(in.Items) == 0 {
		return domain.Invalid("items", "al menos un ítem")
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" && strings.TrimSpace(it.Description) == "" {
			return domain.Invalid("items.description", "producto o descripción requerido")
		}
		if it.Quantity <= 0 {
			return domain.Invalid("items.quantity", "debe ser mayor a 0")
		}
		if it.WarrantyMonths < 0 {
			return domain.Invalid("items.warranty_months", "no puede ser negativo")
		}
	}
	return nil
}

// CreateBatch persiste el lote en awaiting_prices y devuelve el lote con su número generado.
func (uc *BatchLifecycleUseCase) CreateBatch(ctx context.Context, in CreateBatchInput) (batch *entity.PurchaseBatch, err error) {
	ctx, span := startSpan(ctx, "CreateBatch", attribute.String("supplier.id", in.SupplierID))
	defer func() { endSpan(ctx, span, "create_batch", err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.WarehouseID == "" {
		in.WarehouseID = uc.settings.DefaultWarehouseID
	}
	if in.WarehouseID == "" {
		return nil, domain.Invalid("warehouse_id", "requerido (no hay bodega por defecto)")
	}
	if err := uc.checkDirectory(ctx, in); err != nil {
		return nil, err
	}

	now := uc.settings.now()
	batch = &entity.PurchaseBatch{
		ID:          uuid.New().String(),
		SupplierID:  in.SupplierID,
		WarehouseID: in.WarehouseID,
		Status:      entity.BatchAwaitingPrices,
		Notes:       in.Notes,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, it := range in.Items {
		months := it.WarrantyMonths
		if months == 0 {
			months = uc.settings.WarrantyMonths
		}
		batch.Items = append(batch.Items, &entity.BatchItem{
			ID:             uuid.New().String(),
			BatchID:        batch.ID,
			ProductID:      strings.TrimSpace(it.ProductID),
			Description:    strings.TrimSpace(it.Description),
			Quantity:       it.Quantity,
			WarrantyMonths: months,
			Notes:          it.Notes,
		})
		batch.TotalQuantity += it.Quantity
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		period := now.Format("200601")
		seq, err := repos.Batches.NextBatchNumber(ctx, period)
		if err != nil {
			return err
		}
		batch.BatchNumber = lifecycle.FormatBatchNumber(period, seq)
		return repos.Batches.Create(ctx, batch)
	})
	if err != nil {
		log.Error().Err(err).Str("supplier_id", in.SupplierID).Msg("error creando lote")
		return nil, err
	}
	log.Info().Str("batch_id", batch.ID).Str("batch_number", batch.BatchNumber).
		Int("total_quantity", batch.TotalQuantity).Msg("lote creado")
	return batch, nil
}

func (uc *BatchLifecycleUseCase) checkDirectory(ctx context.Context, in CreateBatchInput) error {
	if uc.directory == nil {
		return nil
	}
	ok, err := uc.directory.WarehouseExists(ctx, in.WarehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Invalid("warehouse_id", "bodega desconocida")
	}
	for _, it := range in.Items {
		if it.ProductID == "" {
			continue
		}
		p, err := uc.directory.Product(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.Invalid("items.product_id", "producto desconocido: "+it.ProductID)
		}
	}
	return nil
}

// AssignPrices fija el costo unitario de cada ítem y pasa el lote a ready_for_receiving.
// Exige costo para todos los ítems.
func (uc *BatchLifecycleUseCase) AssignPrices(ctx context.Context, batchID string, prices []ItemPrice, pricedBy string) (batch *entity.PurchaseBatch, err error) {
	ctx, span := startSpan(ctx, "AssignPrices", attribute.String("batch.id", batchID))
	defer func() { endSpan(ctx, span, "assign_prices", err) }()

	byItem := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		if p.UnitCost.IsNegative() {
			return nil, domain.Invalid("unit_cost", "no puede ser negativo")
		}
		byItem[p.ItemID] = p.UnitCost
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		batch, err = lockBatch(ctx, repos, batchID)
		if err != nil {
			return err
		}
		next, err := lifecycle.NextBatchStatus(batch.Status, lifecycle.ActionAssignPrices)
		if err != nil {
			return err
		}
		if len(byItem) != len(batch.Items) {
			return domain.Invalid("prices", "se requiere costo para todos los ítems")
		}
		total := decimal.Zero
		for _, it := range batch.Items {
			cost, ok := byItem[it.ID]
			if !ok {
				return domain.Invalid("prices", "falta costo del ítem "+it.ID)
			}
			line := cost.Mul(decimal.NewFromInt(int64(it.Quantity)))
			it.UnitCost = &cost
			it.TotalCost = &line
			total = total.Add(line)
			if err := repos.Batches.UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		now := uc.settings.now()
		batch.TotalCost = &total
		batch.Status = next
		batch.PricedBy = pricedBy
		batch.PricedAt = &now
		batch.UpdatedAt = now
		return repos.Batches.Update(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("batch_id", batchID).Str("total_cost", batch.TotalCost.String()).Msg("precios asignados")
	return batch, nil
}

// UpdateItem edita cantidad, descripción o notas de un ítem. Solo antes de empezar a recibir.
func (uc *BatchLifecycleUseCase) UpdateItem(ctx context.Context, batchID, itemID string, upd ItemUpdate) (*entity.PurchaseBatch, error) {
	if upd.Quantity != nil && *upd.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor a 0")
	}
	var batch *entity.PurchaseBatch
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		var err error
		batch, err = lockBatch(ctx, repos, batchID)
		if err != nil {
			return err
		}
		if _, err := lifecycle.NextBatchStatus(batch.Status, lifecycle.ActionEditItems); err != nil {
			return err
		}
		item := batch.Item(itemID)
		if item == nil {
			return domain.ErrNotFound
		}
		if upd.Description != nil {
			desc := strings.TrimSpace(*upd.Description)
			if desc == "" && item.ProductID == "" {
				return domain.Invalid("description", "producto o descripción requerido")
			}
			item.Description = desc
		}
		if upd.Notes != nil {
			item.Notes = *upd.Notes
		}
		if upd.Quantity != nil {
			batch.TotalQuantity += *upd.Quantity - item.Quantity
			item.Quantity = *upd.Quantity
			if item.UnitCost != nil {
				line := item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity)))
				item.TotalCost = &line
				batch.TotalCost = sumCosts(batch.Items)
			}
		}
		if err := repos.Batches.UpdateItem(ctx, item); err != nil {
			return err
		}
		batch.UpdatedAt = uc.settings.now()
		return repos.Batches.Update(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// BeginReceiving ready_for_receiving → receiving. Idempotente si ya está en receiving.
func (uc *BatchLifecycleUseCase) BeginReceiving(ctx context.Context, batchID, performedBy string) (*entity.PurchaseBatch, error) {
	var batch *entity.PurchaseBatch
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		var err error
		batch, err = lockBatch(ctx, repos, batchID)
		if err != nil {
			return err
		}
		return uc.beginReceivingInTx(ctx, repos, batch, performedBy)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (uc *BatchLifecycleUseCase) beginReceivingInTx(ctx context.Context, repos Repos, batch *entity.PurchaseBatch, performedBy string) error {
	next, err := lifecycle.NextBatchStatus(batch.Status, lifecycle.ActionBeginReceiving)
	if err != nil {
		return err
	}
	if next == batch.Status {
		return nil
	}
	batch.Status = next
	batch.ReceivedBy = performedBy
	batch.UpdatedAt = uc.settings.now()
	log.Info().Str("batch_id", batch.ID).Msg("recepción iniciada")
	return repos.Batches.Update(ctx, batch)
}

// RecordUnitsReceived suma count al contador del ítem y del lote en una misma transacción.
// Falla con ErrOverReceipt sin modificar contadores si se excede lo solicitado.
func (uc *BatchLifecycleUseCase) RecordUnitsReceived(ctx context.Context, batchID, itemID string, count int, performedBy string) (batch *entity.PurchaseBatch, err error) {
	ctx, span := startSpan(ctx, "RecordUnitsReceived",
		attribute.String("batch.id", batchID), attribute.String("item.id", itemID), attribute.Int("count", count))
	defer func() { endSpan(ctx, span, "record_units_received", err) }()

	if count <= 0 {
		return nil, domain.Invalid("count", "debe ser mayor a 0")
	}
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		batch, err = lockBatch(ctx, repos, batchID)
		if err != nil {
			return err
		}
		item := batch.Item(itemID)
		if item == nil {
			return domain.ErrNotFound
		}
		return uc.recordUnitsInTx(ctx, repos, batch, item, count, performedBy)
	})
	if err != nil {
		log.Warn().Err(err).Str("batch_id", batchID).Str("item_id", itemID).Int("count", count).
			Msg("recepción de unidades rechazada")
		return nil, err
	}
	return batch, nil
}

// recordUnitsInTx aplica el incremento con el lote ya bloqueado por la tx.
// Inicia la recepción si es la primera unidad y cierra el lote al completar el total.
func (uc *BatchLifecycleUseCase) recordUnitsInTx(ctx context.Context, repos Repos, batch *entity.PurchaseBatch, item *entity.BatchItem, count int, performedBy string) error {
	if item.ReceivedQuantity+count > item.Quantity {
		return domain.ErrOverReceipt
	}
	if err := uc.beginReceivingInTx(ctx, repos, batch, performedBy); err != nil {
		return err
	}
	if _, err := lifecycle.NextBatchStatus(batch.Status, lifecycle.ActionReceive); err != nil {
		return err
	}

	itemReceived, err := repos.Batches.IncrementItemReceived(ctx, item.ID, count)
	if err != nil {
		return err
	}
	item.ReceivedQuantity = itemReceived
	batchReceived, err := repos.Batches.IncrementBatchReceived(ctx, batch.ID, count)
	if err != nil {
		return err
	}
	batch.ReceivedQuantity = batchReceived

	if batch.ReceivedQuantity < batch.TotalQuantity {
		return nil
	}
	next, err := lifecycle.NextBatchStatus(batch.Status, lifecycle.ActionComplete)
	if err != nil {
		return err
	}
	now := uc.settings.now()
	batch.Status = next
	batch.ReceivedBy = performedBy
	batch.ReceivedAt = &now
	batch.UpdatedAt = now
	log.Info().Str("batch_id", batch.ID).Int("received", batch.ReceivedQuantity).Msg("lote recibido completo")
	return repos.Batches.Update(ctx, batch)
}

// Cancel marca el lote como cancelado. Los dispositivos ya creados conservan su historial.
func (uc *BatchLifecycleUseCase) Cancel(ctx context.Context, batchID, reason, performedBy string) (*entity.PurchaseBatch, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.Invalid("reason", "requerido")
	}
	var batch *entity.PurchaseBatch
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		var err error
		batch, err = lockBatch(ctx, repos, batchID)
		if err != nil {
			return err
		}
		next, err := lifecycle.NextBatchStatus(batch.Status, lifecycle.ActionCancel)
		if err != nil {
			return err
		}
		batch.Status = next
		batch.CancelReason = strings.TrimSpace(reason)
		batch.UpdatedAt = uc.settings.now()
		return repos.Batches.Update(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("batch_id", batchID).Str("reason", reason).Str("by", performedBy).
		Int("received", batch.ReceivedQuantity).Msg("lote cancelado")
	return batch, nil
}

// MarkReadyToSell received → ready_to_sell, registrando precios de venta opcionales
// para dispositivos del lote.
func (uc *BatchLifecycleUseCase) MarkReadyToSell(ctx context.Context, batchID string, prices []SellingPrice) (*entity.PurchaseBatch, error) {
	for _, p := range prices {
		if p.Price.IsNegative() {
			return nil, domain.Invalid("selling_price", "no puede ser negativo")
		}
	}
	var batch *entity.PurchaseBatch
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		var err error
		batch, err = lockBatch(ctx, repos, batchID)
		if err != nil {
			return err
		}
		next, err := lifecycle.NextBatchStatus(batch.Status, lifecycle.ActionMarkReady)
		if err != nil {
			return err
		}
		for _, p := range prices {
			d, err := repos.Devices.GetBySerial(ctx, p.Serial)
			if err != nil {
				return err
			}
			if d == nil || d.BatchID != batch.ID {
				return domain.Invalid("serial", "el dispositivo no pertenece al lote: "+p.Serial)
			}
			if err := repos.Devices.UpdateSellingPrice(ctx, d.ID, p.Price); err != nil {
				return err
			}
		}
		batch.Status = next
		batch.UpdatedAt = uc.settings.now()
		return repos.Batches.Update(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// List lotes filtrados, más recientes primero.
func (uc *BatchLifecycleUseCase) List(ctx context.Context, filter entity.BatchFilter) ([]*entity.PurchaseBatch, error) {
	if filter.Status != "" && !validBatchStatus(filter.Status) {
		return nil, domain.Invalid("status", "estado de lote desconocido")
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.txRunner.Reader().Batches.List(ctx, filter)
}

// Stats cantidad de lotes por estado (todos los estados presentes, aunque sea en cero).
func (uc *BatchLifecycleUseCase) Stats(ctx context.Context) (map[entity.BatchStatus]int, error) {
	counts, err := uc.txRunner.Reader().Batches.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[entity.BatchStatus]int, len(entity.BatchStatuses))
	for _, s := range entity.BatchStatuses {
		out[s] = counts[s]
	}
	return out, nil
}

func lockBatch(ctx context.Context, repos Repos, batchID string) (*entity.PurchaseBatch, error) {
	batch, err := repos.Batches.GetForUpdate(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	return batch, nil
}

func sumCosts(items []*entity.BatchItem) *decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.TotalCost == nil {
			return nil
		}
		total = total.Add(*it.TotalCost)
	}
	return &total
}

func validBatchStatus(s entity.BatchStatus) bool {
	for _, v := range entity.BatchStatuses {
		if v == s {
			return true
		}
	}
	return false
}
