package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

// RegisterMovementUseCase es el motor de transiciones de estado: único escritor del ledger.
// Bloquea la fila del dispositivo (SELECT FOR UPDATE), valida la transición contra la tabla
// de lifecycle, agrega el movimiento y actualiza el estado desnormalizado en la misma transacción.
type RegisterMovementUseCase struct {
	txRunner  TxRunner
	directory Directory
	settings  Settings
}

// NewRegisterMovementUseCase construye el motor.
func NewRegisterMovementUseCase(txRunner TxRunner, directory Directory, settings Settings) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{txRunner: txRunner, directory: directory, settings: settings}
}

// MovementInput entrada para registrar un movimiento sobre un dispositivo.
// TargetStatus solo se usa en movimientos con más de un resultado posible
// (custody_return, maintenance_out, adjustment).
type MovementInput struct {
	Serial         string
	Type           entity.MovementType
	TargetStatus   entity.DeviceStatus
	ToWarehouseID  string
	ReferenceType  string
	ReferenceID    string
	CustomerID     string
	CustodyReason  string
	Condition      string
	Specs          map[string]string
	IdempotencyKey string
	PerformedBy    string
	Notes          string

	// requireAvailable hace fallar con ErrDeviceNotAvailable si el estado no es available.
	requireAvailable bool
}

// MovementResult movimiento registrado y estado final del dispositivo.
type MovementResult struct {
	Movement *entity.Movement
	Device   *entity.Device
	Replayed bool // la clave de idempotencia ya estaba registrada
}

func (in MovementInput) validate() error {
	if strings.TrimSpace(in.Serial) == "" {
		return domain.Invalid("serial", "requerido")
	}
	if in.PerformedBy == "" {
		return domain.Invalid("performed_by", "requerido")
	}
	if _, ok := lifecycle.Rules[in.Type]; !ok {
		return domain.Invalid("movement_type", "tipo de movimiento desconocido: "+string(in.Type))
	}
	if in.TargetStatus != "" && !in.TargetStatus.Valid() {
		return domain.Invalid("target_status", "estado desconocido: "+string(in.TargetStatus))
	}
	switch in.Type {
	case entity.MovementPurchaseReceived:
		return domain.Invalid("movement_type", "purchase_received solo se registra al recibir la unidad")
	case entity.MovementWarehouseTransfer:
		if in.ToWarehouseID == "" {
			return domain.Invalid("to_warehouse_id", "requerido para traslado")
		}
	case entity.MovementCustodyAssign:
		if in.ReferenceID == "" {
			return domain.Invalid("reference_id", "responsable de la custodia requerido")
		}
	case entity.MovementAdjustment:
		if strings.TrimSpace(in.Notes) == "" {
			return domain.Invalid("notes", "un ajuste requiere justificación")
		}
	}
	return nil
}

// RecordMovement valida y ejecuta un cambio de estado de forma atómica.
// Los reintentos solo son seguros con IdempotencyKey.
func (uc *RegisterMovementUseCase) RecordMovement(ctx context.Context, in MovementInput) (res *MovementResult, err error) {
	ctx, span := startSpan(ctx, "RecordMovement",
		attribute.String("device.serial", in.Serial), attribute.String("movement.type", string(in.Type)))
	defer func() { endSpan(ctx, span, "record_movement", err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := uc.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		device, err := repos.Devices.GetForUpdateBySerial(ctx, in.Serial)
		if err != nil {
			return err
		}
		if device == nil {
			return domain.ErrNotFound
		}
		res, err = uc.applyInTx(ctx, repos, device, in)
		return err
	})
	if err != nil {
		logRejection(err, "movimiento rechazado", in.Serial, string(in.Type))
		return nil, err
	}
	return res, nil
}

// checkReferences valida contra los registros externos (bodega, empleado, cliente).
func (uc *RegisterMovementUseCase) checkReferences(ctx context.Context, in MovementInput) error {
	if uc.directory == nil {
		return nil
	}
	if in.ToWarehouseID != "" {
		ok, err := uc.directory.WarehouseExists(ctx, in.ToWarehouseID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Invalid("to_warehouse_id", "bodega desconocida")
		}
	}
	if in.Type == entity.MovementCustodyAssign {
		ok, err := uc.directory.EmployeeExists(ctx, in.ReferenceID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Invalid("holder_id", "empleado desconocido")
		}
	}
	if in.CustomerID != "" {
		ok, err := uc.directory.CustomerExists(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Invalid("customer_id", "cliente desconocido")
		}
	}
	return nil
}

// applyInTx núcleo del motor. device debe estar bloqueado por la transacción del caller
// (o ser nuevo, con Status none y Version 0). Consulta el último movimiento del ledger,
// resuelve la transición, agrega el movimiento y persiste el estado desnormalizado.
func (uc *RegisterMovementUseCase) applyInTx(ctx context.Context, repos Repos, device *entity.Device, in MovementInput) (*MovementResult, error) {
	isNew := device.Status == entity.StatusNone

	if in.IdempotencyKey != "" && !isNew {
		prev, err := repos.Movements.GetByIdempotencyKey(ctx, device.ID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			if prev.Type != in.Type {
				return nil, domain.Invalid("idempotency_key", "clave usada por otro tipo de movimiento")
			}
			return &MovementResult{Movement: prev, Device: device, Replayed: true}, nil
		}
	}

	from := device.Status
	var last *entity.Movement
	if !isNew {
		var err error
		last, err = repos.Movements.Last(ctx, device.ID)
		if err != nil {
			return nil, err
		}
		if last == nil {
			return nil, errors.Join(domain.ErrPersistence, errors.New("dispositivo sin movimiento de recepción: "+device.SerialNumber))
		}
		// El ledger es la autoridad: si el cache difiere se corrige con este movimiento.
		if last.ToStatus != from {
			log.Error().Str("serial", device.SerialNumber).
				Str("cached", string(from)).Str("ledger", string(last.ToStatus)).
				Msg("estado cacheado difiere del ledger")
			from = last.ToStatus
			device.Status = from
		}
	}

	if in.requireAvailable && from != entity.StatusAvailable {
		return nil, &domain.NotAvailableError{Serial: device.SerialNumber, Status: string(from)}
	}

	to, err := lifecycle.Resolve(in.Type, from, in.TargetStatus)
	if err != nil {
		return nil, err
	}

	performedAt := uc.settings.now()
	seq := 1
	if last != nil {
		seq = last.Sequence + 1
		if !performedAt.After(last.PerformedAt) {
			performedAt = last.PerformedAt.Add(time.Microsecond)
		}
	}

	mov := &entity.Movement{
		ID:              uuid.New().String(),
		DeviceID:        device.ID,
		Sequence:        seq,
		Type:            in.Type,
		FromStatus:      from,
		ToStatus:        to,
		FromWarehouseID: device.WarehouseID,
		ToWarehouseID:   device.WarehouseID,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		IdempotencyKey:  in.IdempotencyKey,
		PerformedBy:     in.PerformedBy,
		PerformedAt:     performedAt,
		Notes:           in.Notes,
	}
	if isNew {
		mov.FromWarehouseID = ""
	}
	if apply, ok := effects[in.Type]; ok {
		apply(device, mov, in)
	}
	if to != entity.StatusInCustody {
		clearCustody(device)
	}
	device.Status = to
	device.UpdatedAt = performedAt

	if isNew {
		device.CreatedAt = performedAt
		if err := repos.Devices.Create(ctx, device); err != nil {
			return nil, err
		}
		if err := repos.Movements.Append(ctx, mov); err != nil {
			return nil, err
		}
	} else {
		if err := repos.Movements.Append(ctx, mov); err != nil {
			return nil, err
		}
		if err := repos.Devices.UpdateState(ctx, device); err != nil {
			return nil, err
		}
	}
	movementsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(in.Type))))
	return &MovementResult{Movement: mov, Device: device}, nil
}

// History secuencia completa de movimientos del dispositivo (solo lectura).
func (uc *RegisterMovementUseCase) History(ctx context.Context, serial string) ([]*entity.Movement, error) {
	repos := uc.txRunner.Reader()
	device, err := repos.Devices.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, domain.ErrNotFound
	}
	return repos.Movements.ListByDevice(ctx, device.ID)
}

// CurrentStatus lectura O(1) del estado desnormalizado; equivale a last(History).ToStatus.
func (uc *RegisterMovementUseCase) CurrentStatus(ctx context.Context, serial string) (entity.DeviceStatus, error) {
	device, err := uc.txRunner.Reader().Devices.GetBySerial(ctx, serial)
	if err != nil {
		return "", err
	}
	if device == nil {
		return "", domain.ErrNotFound
	}
	return device.Status, nil
}

// TransferResult resultado por serial de un traslado masivo.
type TransferResult struct {
	Serial string
	Error  error
}

// BulkTransfer traslada varios seriales a otra bodega. Cada serial es una transacción independiente.
func (uc *RegisterMovementUseCase) BulkTransfer(ctx context.Context, serials []string, toWarehouseID, performedBy, notes string) ([]TransferResult, error) {
	if len(serials) == 0 {
		return nil, domain.Invalid("serials", "al menos un serial")
	}
	if toWarehouseID == "" {
		return nil, domain.Invalid("to_warehouse_id", "requerido")
	}
	out := make([]TransferResult, 0, len(serials))
	for _, s := range serials {
		_, err := uc.RecordMovement(ctx, MovementInput{
			Serial:        s,
			Type:          entity.MovementWarehouseTransfer,
			ToWarehouseID: toWarehouseID,
			PerformedBy:   performedBy,
			Notes:         notes,
		})
		out = append(out, TransferResult{Serial: s, Error: err})
	}
	return out, nil
}

func logRejection(err error, msg, serial, op string) {
	ev := log.Warn()
	if !domain.IsBusinessError(err) {
		ev = log.Error()
	}
	ev.Err(err).Str("serial", serial).Str("operation", op).Msg(msg)
}
