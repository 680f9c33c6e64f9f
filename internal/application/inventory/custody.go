package inventory

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

// CustodyUseCase asignación y devolución de custodia. Todo pasa por el motor de movimientos.
type CustodyUseCase struct {
	txRunner TxRunner
	engine   *RegisterMovementUseCase
}

// NewCustodyUseCase construye el caso de uso.
func NewCustodyUseCase(txRunner TxRunner, engine *RegisterMovementUseCase) *CustodyUseCase {
	return &CustodyUseCase{txRunner: txRunner, engine: engine}
}

// AssignCustodyInput entrada de AssignCustody.
type AssignCustodyInput struct {
	Serial         string
	HolderID       string
	Reason         string
	Notes          string
	IdempotencyKey string
	PerformedBy    string
}

// ReturnCustodyInput entrada de ReturnCustody. Condition vacía equivale a good.
type ReturnCustodyInput struct {
	Serial         string
	Condition      string
	WarehouseID    string
	Notes          string
	IdempotencyKey string
	PerformedBy    string
}

// AssignCustody exige estado available; si no, ErrDeviceNotAvailable y no se agrega movimiento.
func (uc *CustodyUseCase) AssignCustody(ctx context.Context, in AssignCustodyInput) (*MovementResult, error) {
	if strings.TrimSpace(in.HolderID) == "" {
		return nil, domain.Invalid("holder_id", "requerido")
	}
	return uc.engine.RecordMovement(ctx, assignInput(in))
}

func assignInput(in AssignCustodyInput) MovementInput {
	return MovementInput{
		Serial:           in.Serial,
		Type:             entity.MovementCustodyAssign,
		ReferenceType:    entity.ReferenceEmployee,
		ReferenceID:      strings.TrimSpace(in.HolderID),
		CustodyReason:    in.Reason,
		IdempotencyKey:   in.IdempotencyKey,
		PerformedBy:      in.PerformedBy,
		Notes:            in.Notes,
		requireAvailable: true,
	}
}

// ReturnCustody exige estado in_custody. La condición reportada define el estado final.
func (uc *CustodyUseCase) ReturnCustody(ctx context.Context, in ReturnCustodyInput) (*MovementResult, error) {
	mi, err := returnInput(in)
	if err != nil {
		return nil, err
	}
	return uc.engine.RecordMovement(ctx, mi)
}

func returnInput(in ReturnCustodyInput) (MovementInput, error) {
	target, err := lifecycle.ReturnStatus(in.Condition)
	if err != nil {
		return MovementInput{}, err
	}
	return MovementInput{
		Serial:         in.Serial,
		Type:           entity.MovementCustodyReturn,
		TargetStatus:   target,
		Condition:      in.Condition,
		ToWarehouseID:  in.WarehouseID,
		IdempotencyKey: in.IdempotencyKey,
		PerformedBy:    in.PerformedBy,
		Notes:          in.Notes,
	}, nil
}

// TransferCustody pasa la custodia a otro responsable: devolución y asignación en una sola transacción.
func (uc *CustodyUseCase) TransferCustody(ctx context.Context, serial, toHolderID, reason, performedBy string) (*MovementResult, error) {
	if strings.TrimSpace(toHolderID) == "" {
		return nil, domain.Invalid("holder_id", "requerido")
	}
	if performedBy == "" {
		return nil, domain.Invalid("performed_by", "requerido")
	}
	assign := assignInput(AssignCustodyInput{Serial: serial, HolderID: toHolderID, Reason: reason, PerformedBy: performedBy})
	if err := uc.engine.checkReferences(ctx, assign); err != nil {
		return nil, err
	}

	var res *MovementResult
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		device, err := repos.Devices.GetForUpdateBySerial(ctx, serial)
		if err != nil {
			return err
		}
		if device == nil {
			return domain.ErrNotFound
		}
		if device.HolderID == assign.ReferenceID && device.Status == entity.StatusInCustody {
			return domain.Invalid("holder_id", "el dispositivo ya está en custodia de ese responsable")
		}
		ret, err := returnInput(ReturnCustodyInput{Serial: serial, PerformedBy: performedBy, Notes: "traslado de custodia"})
		if err != nil {
			return err
		}
		if _, err := uc.engine.applyInTx(ctx, repos, device, ret); err != nil {
			return err
		}
		res, err = uc.engine.applyInTx(ctx, repos, device, assign)
		return err
	})
	if err != nil {
		logRejection(err, "traslado de custodia rechazado", serial, "custody_transfer")
		return nil, err
	}
	log.Info().Str("serial", serial).Str("holder_id", toHolderID).Msg("custodia trasladada")
	return res, nil
}

// List dispositivos en custodia; holderID vacío lista todos.
func (uc *CustodyUseCase) List(ctx context.Context, holderID string) ([]*entity.Device, error) {
	return uc.txRunner.Reader().Devices.ListInCustody(ctx, holderID)
}

// Summary cantidad de dispositivos por responsable.
func (uc *CustodyUseCase) Summary(ctx context.Context) ([]entity.CustodySummary, error) {
	return uc.txRunner.Reader().Devices.CustodySummary(ctx)
}
