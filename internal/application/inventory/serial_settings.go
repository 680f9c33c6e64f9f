package inventory

import (
	"context"

	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

// SerialSettingsUseCase lectura y cambio del formato de serial.
type SerialSettingsUseCase struct {
	txRunner TxRunner
	settings Settings
}

// NewSerialSettingsUseCase construye el caso de uso.
func NewSerialSettingsUseCase(txRunner TxRunner, settings Settings) *SerialSettingsUseCase {
	return &SerialSettingsUseCase{txRunner: txRunner, settings: settings}
}

func (uc *SerialSettingsUseCase) defaults() entity.SerialSettings {
	if uc.settings.Serial.Prefix == "" {
		return lifecycle.DefaultSerialSettings()
	}
	return lifecycle.CanonicalSerialSettings(uc.settings.Serial)
}

// Get configuración vigente con el último serial emitido.
func (uc *SerialSettingsUseCase) Get(ctx context.Context) (*entity.SerialSettings, error) {
	return uc.txRunner.Reader().Serials.Get(ctx, uc.defaults())
}

// Next serial que se emitiría ahora, sin consumirlo.
func (uc *SerialSettingsUseCase) Next(ctx context.Context) (string, error) {
	s, err := uc.Get(ctx)
	if err != nil {
		return "", err
	}
	return lifecycle.FormatSerial(lifecycle.AdvanceSequence(*s, uc.settings.now().Year())), nil
}

// SerialSettingsUpdate campos editables. La secuencia nunca se edita: solo avanza.
type SerialSettingsUpdate struct {
	Prefix      string
	Separator   string
	YearFormat  string
	Digits      int
	ResetYearly bool
}

// Update cambia el formato conservando año y secuencia actuales. Prefijo y separador
// se guardan en mayúsculas.
func (uc *SerialSettingsUseCase) Update(ctx context.Context, upd SerialSettingsUpdate) (*entity.SerialSettings, error) {
	var out *entity.SerialSettings
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos Repos) error {
		cur, err := repos.Serials.GetForUpdate(ctx, uc.defaults())
		if err != nil {
			return err
		}
		next := *cur
		next.Prefix = upd.Prefix
		next.Separator = upd.Separator
		next.YearFormat = upd.YearFormat
		next.Digits = upd.Digits
		next.ResetYearly = upd.ResetYearly
		next = lifecycle.CanonicalSerialSettings(next)
		if err := lifecycle.ValidateSerialSettings(next); err != nil {
			return err
		}
		next.UpdatedAt = uc.settings.now()
		if err := repos.Serials.Save(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
