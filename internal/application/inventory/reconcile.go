package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

const driftReportLimit = 500

// ReconcileUseCase compara el estado cacheado de cada dispositivo contra su último movimiento.
// Solo reporta: la corrección la hace el motor en el siguiente movimiento del dispositivo.
type ReconcileUseCase struct {
	txRunner TxRunner
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(txRunner TxRunner) *ReconcileUseCase {
	return &ReconcileUseCase{txRunner: txRunner}
}

// Reconcile devuelve los dispositivos cuyo estado difiere del ledger.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context) ([]entity.StatusDrift, error) {
	ctx, span := startSpan(ctx, "Reconcile")
	drift, err := uc.txRunner.Reader().Movements.FindStatusDrift(ctx, driftReportLimit)
	endSpan(ctx, span, "reconcile", err)
	if err != nil {
		return nil, err
	}
	for _, d := range drift {
		log.Error().Str("device_id", d.DeviceID).Str("serial", d.SerialNumber).
			Str("cached", string(d.Cached)).Str("ledger", string(d.Ledger)).
			Msg("estado desnormalizado difiere del último movimiento")
	}
	return drift, nil
}

// Run ejecuta Reconcile cada interval hasta que ctx se cancele.
func (uc *ReconcileUseCase) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			drift, err := uc.Reconcile(ctx)
			if err != nil {
				log.Error().Err(err).Msg("reconciliación fallida")
				continue
			}
			log.Debug().Int("drift", len(drift)).Msg("reconciliación completada")
		}
	}
}
