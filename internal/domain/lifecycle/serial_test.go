package lifecycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/lifecycle"
)

func TestFormatSerial(t *testing.T) {
	s := lifecycle.DefaultSerialSettings()
	s = lifecycle.AdvanceSequence(s, 2026)
	assert.Equal(t, "BI-2026-000001", lifecycle.FormatSerial(s))

	s.YearFormat = "YY"
	s.Digits = 4
	s = lifecycle.AdvanceSequence(s, 2026)
	assert.Equal(t, "BI-26-0002", lifecycle.FormatSerial(s))
}

func TestAdvanceSequence_ReinicioAnual(t *testing.T) {
	s := lifecycle.DefaultSerialSettings()
	s.ResetYearly = true
	s.CurrentYear = 2025
	s.CurrentSequence = 41

	s = lifecycle.AdvanceSequence(s, 2026)
	assert.Equal(t, int64(1), s.CurrentSequence)
	assert.Equal(t, 2026, s.CurrentYear)

	s.ResetYearly = false
	s = lifecycle.AdvanceSequence(s, 2027)
	assert.Equal(t, int64(2), s.CurrentSequence, "sin reinicio la secuencia sigue")
}

func TestValidateSerialSettings(t *testing.T) {
	assert.NoError(t, lifecycle.ValidateSerialSettings(lifecycle.DefaultSerialSettings()))

	bad := lifecycle.DefaultSerialSettings()
	bad.YearFormat = "Y"
	assert.ErrorIs(t, lifecycle.ValidateSerialSettings(bad), domain.ErrInvalidInput)

	lower := lifecycle.DefaultSerialSettings()
	lower.Prefix = "bi"
	assert.ErrorIs(t, lifecycle.ValidateSerialSettings(lower), domain.ErrInvalidInput)
	assert.NoError(t, lifecycle.ValidateSerialSettings(lifecycle.CanonicalSerialSettings(lower)))
}

func TestCanonicalSerialSettings(t *testing.T) {
	s := lifecycle.DefaultSerialSettings()
	s.Prefix = " ｅｑ "
	s.Separator = "x"
	c := lifecycle.CanonicalSerialSettings(s)
	assert.Equal(t, "EQ", c.Prefix)
	assert.Equal(t, "X", c.Separator)

	// Configuraciones guardadas antes de normalizar siguen emitiendo seriales en mayúsculas.
	s.Prefix = "bi"
	s.Separator = "-"
	s = lifecycle.AdvanceSequence(s, 2026)
	assert.Equal(t, "BI-2026-000001", lifecycle.FormatSerial(s))
}

func TestFormatBatchNumber(t *testing.T) {
	assert.Equal(t, "PO-202610-0007", lifecycle.FormatBatchNumber("202610", 7))
}

func TestWarranty(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, lifecycle.WarrantyNone, lifecycle.Warranty(nil, now).State)

	end := now.AddDate(0, 0, 90)
	w := lifecycle.Warranty(&end, now)
	assert.Equal(t, lifecycle.WarrantyActive, w.State)
	assert.Equal(t, 90, w.Days)

	soon := now.AddDate(0, 0, 10)
	assert.Equal(t, lifecycle.WarrantyExpiringSoon, lifecycle.Warranty(&soon, now).State)

	past := now.AddDate(0, 0, -5)
	w = lifecycle.Warranty(&past, now)
	assert.Equal(t, lifecycle.WarrantyExpired, w.State)
	assert.Equal(t, 5, w.Days)

	assert.Nil(t, lifecycle.WarrantyEnd(now, 0))
	assert.Equal(t, now.AddDate(1, 0, 0), *lifecycle.WarrantyEnd(now, 12))
}
