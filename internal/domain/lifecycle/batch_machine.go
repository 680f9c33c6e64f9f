package lifecycle

import (
	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// BatchAction acción sobre la máquina de estados del lote.
type BatchAction string

const (
	ActionAssignPrices   BatchAction = "assign_prices"
	ActionEditItems      BatchAction = "edit_items"
	ActionBeginReceiving BatchAction = "begin_receiving"
	ActionReceive        BatchAction = "receive"
	ActionComplete       BatchAction = "complete_receiving"
	ActionCancel         BatchAction = "cancel"
	ActionMarkReady      BatchAction = "mark_ready_to_sell"
)

type batchKey struct {
	From   entity.BatchStatus
	Action BatchAction
}

var batchTable = map[batchKey]entity.BatchStatus{
	{entity.BatchAwaitingPrices, ActionAssignPrices}:      entity.BatchReadyForReceiving,
	{entity.BatchAwaitingPrices, ActionEditItems}:         entity.BatchAwaitingPrices,
	{entity.BatchReadyForReceiving, ActionEditItems}:      entity.BatchReadyForReceiving,
	{entity.BatchReadyForReceiving, ActionBeginReceiving}: entity.BatchReceiving,
	{entity.BatchReceiving, ActionBeginReceiving}:         entity.BatchReceiving,
	{entity.BatchReceiving, ActionReceive}:                entity.BatchReceiving,
	{entity.BatchReceiving, ActionComplete}:               entity.BatchReceived,
	{entity.BatchReceived, ActionMarkReady}:               entity.BatchReadyToSell,

	{entity.BatchAwaitingPrices, ActionCancel}:    entity.BatchCancelled,
	{entity.BatchReadyForReceiving, ActionCancel}: entity.BatchCancelled,
	{entity.BatchReceiving, ActionCancel}:         entity.BatchCancelled,
	{entity.BatchReceived, ActionCancel}:          entity.BatchCancelled,
}

// NextBatchStatus aplica action sobre from. Las acciones de recepción devuelven ErrBatchNotReceivable.
func NextBatchStatus(from entity.BatchStatus, action BatchAction) (entity.BatchStatus, error) {
	next, ok := batchTable[batchKey{From: from, Action: action}]
	if ok {
		return next, nil
	}
	if action == ActionReceive || action == ActionBeginReceiving {
		return "", domain.ErrBatchNotReceivable
	}
	return "", &domain.TransitionError{Entity: "batch", From: string(from), Action: string(action)}
}

// Receivable indica si el lote acepta unidades (iniciando la recepción si hace falta).
func Receivable(status entity.BatchStatus) bool {
	return status == entity.BatchReadyForReceiving || status == entity.BatchReceiving
}
