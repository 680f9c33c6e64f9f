package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

// ReceiveUnitUseCase servicio de serialización: crea un dispositivo por unidad física inspeccionada.
type ReceiveUnitUseCase struct {
	txRunner TxRunner
	engine   *RegisterMovementUseCase
	batches  *BatchLifecycleUseCase
	settings Settings
}

// NewReceiveUnitUseCase construye el servicio. Usa el motor para el primer movimiento
// y el ciclo de vida del lote para los contadores.
func NewReceiveUnitUseCase(txRunner TxRunner, engine *RegisterMovementUseCase, batches *BatchLifecycleUseCase, settings Settings) *ReceiveUnitUseCase {
	return &ReceiveUnitUseCase{txRunner: txRunner, engine: engine, batches: batches, settings: settings}
}

// ReceiveUnitInput una unidad física que pasó por inspección.
type ReceiveUnitInput struct {
	BatchItemID string
	ActualSpecs map[string]string
	Outcome     entity.InspectionOutcome
	Defects     []string
	Notes       string
	// IdempotencyKey opcional: un reintento con la misma clave devuelve el dispositivo ya creado.
	IdempotencyKey string
	PerformedBy    string

	// batchID si viene, el ítem debe pertenecer a ese lote.
	batchID string
}

// ReceiveUnitResult dispositivo creado, su primer movimiento y el lote actualizado.
type ReceiveUnitResult struct {
	Device   *entity.Device
	Movement *entity.Movement
	Batch    *entity.PurchaseBatch
	Replayed bool
}

func (in ReceiveUnitInput) validate() error {
	if in.BatchItemID == "" {
		return domain.Invalid("batch_item_id", "requerido")
	}
	if in.PerformedBy == "" {
		return domain.Invalid("performed_by", "requerido")
	}
	for _, d := range in.Defects {
		if strings.TrimSpace(d) == "" {
			return domain.Invalid("defects", "defecto vacío")
		}
	}
	return nil
}

// ReceiveUnit valida que el lote admita recepción, genera el serial, crea el dispositivo
// con su movimiento purchase_received y suma la unidad al ítem y al lote. Todo en una transacción.
func (uc *ReceiveUnitUseCase) ReceiveUnit(ctx context.Context, in ReceiveUnitInput) (res *ReceiveUnitResult, err error) {
	ctx, span := startSpan(ctx, "ReceiveUnit",
		attribute.String("item.id", in.BatchItemID), attribute.String("inspection.outcome", string(in.Outcome)))
	defer func() { endSpan(ctx, span, "receive_unit", err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}
	status, condition, err := lifecycle.InitialStatus(in.Outcome)
	if err != nil {
		return nil, err
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		item, err := repos.Batches.GetItem(ctx, in.BatchItemID)
		if err != nil {
			return err
		}
		if item == nil || (in.batchID != "" && item.BatchID != in.batchID) {
			return domain.ErrNotFound
		}
		batch, err := lockBatch(ctx, repos, item.BatchID)
		if err != nil {
			return err
		}
		if in.IdempotencyKey != "" {
			prev, err := repos.Devices.GetByIntakeKey(ctx, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				if prev.BatchItemID != in.BatchItemID {
					return domain.Invalid("idempotency_key", "clave usada para otro ítem")
				}
				res, err = uc.replay(ctx, repos, prev, batch)
				return err
			}
		}
		// La copia bloqueada del ítem es la que cuenta.
		item = batch.Item(in.BatchItemID)
		if item == nil {
			return domain.ErrNotFound
		}
		if item.Remaining() <= 0 {
			return domain.ErrOverReceipt
		}
		if !lifecycle.Receivable(batch.Status) {
			return domain.ErrBatchNotReceivable
		}

		now := uc.settings.now()
		defaults := lifecycle.CanonicalSerialSettings(uc.settings.Serial)
		if defaults.Prefix == "" {
			defaults = lifecycle.DefaultSerialSettings()
		}
		counter, err := repos.Serials.GetForUpdate(ctx, defaults)
		if err != nil {
			return err
		}
		next := lifecycle.AdvanceSequence(*counter, now.Year())
		next.UpdatedAt = now
		if err := repos.Serials.Save(ctx, &next); err != nil {
			return err
		}

		device := uc.newDevice(batch, item, in, lifecycle.FormatSerial(next), condition, now)
		mov, err := uc.engine.applyInTx(ctx, repos, device, MovementInput{
			Serial:        device.SerialNumber,
			Type:          entity.MovementPurchaseReceived,
			TargetStatus:  status,
			ReferenceType: entity.ReferencePurchaseBatch,
			ReferenceID:   batch.ID,
			PerformedBy:   in.PerformedBy,
			Notes:         in.Notes,
		})
		if err != nil {
			return err
		}
		if err := uc.batches.recordUnitsInTx(ctx, repos, batch, item, 1, in.PerformedBy); err != nil {
			return err
		}
		res = &ReceiveUnitResult{Device: mov.Device, Movement: mov.Movement, Batch: batch}
		return nil
	})
	if err != nil {
		logRejection(err, "recepción de unidad rechazada", "", "receive_unit")
		return nil, err
	}
	if !res.Replayed {
		devicesMinted.Add(ctx, 1)
		log.Info().Str("serial", res.Device.SerialNumber).Str("batch_id", res.Batch.ID).
			Str("status", string(res.Device.Status)).Msg("unidad serializada")
	}
	return res, nil
}

func (uc *ReceiveUnitUseCase) newDevice(batch *entity.PurchaseBatch, item *entity.BatchItem, in ReceiveUnitInput, serial, condition string, now time.Time) *entity.Device {
	d := &entity.Device{
		ID:             uuid.New().String(),
		SerialNumber:   serial,
		BatchID:        batch.ID,
		BatchItemID:    item.ID,
		SupplierID:     batch.SupplierID,
		ProductID:      item.ProductID,
		Description:    item.Description,
		WarehouseID:    batch.WarehouseID,
		Status:         entity.StatusNone,
		Inspection:     in.Outcome,
		Condition:      condition,
		Defects:        in.Defects,
		ActualSpecs:    in.ActualSpecs,
		PurchaseCost:   item.UnitCost,
		WarrantyMonths: item.WarrantyMonths,
		IntakeKey:      in.IdempotencyKey,
		Notes:          in.Notes,
		CreatedBy:      in.PerformedBy,
	}
	if d.WarrantyMonths == 0 {
		d.WarrantyMonths = uc.settings.WarrantyMonths
	}
	d.SupplierWarrantyEnd = lifecycle.WarrantyEnd(now, uc.settings.SupplierWarrantyMonths)
	return d
}

func (uc *ReceiveUnitUseCase) replay(ctx context.Context, repos Repos, device *entity.Device, batch *entity.PurchaseBatch) (*ReceiveUnitResult, error) {
	history, err := repos.Movements.ListByDevice(ctx, device.ID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, domain.ErrPersistence
	}
	return &ReceiveUnitResult{Device: device, Movement: history[0], Batch: batch, Replayed: true}, nil
}
