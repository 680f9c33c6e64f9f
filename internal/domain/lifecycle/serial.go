package lifecycle

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/jhoicas/serial-inventory-api/internal/domain"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
)

// DefaultSerialSettings formato BI-YYYY-000001.
func DefaultSerialSettings() entity.SerialSettings {
	return entity.SerialSettings{Prefix: "BI", Separator: "-", YearFormat: "YYYY", Digits: 6}
}

// CanonicalSerialSettings deja prefijo y separador como los deja un escáner al normalizar
// (ancho normal, mayúsculas), para que todo serial emitido se pueda volver a encontrar.
func CanonicalSerialSettings(s entity.SerialSettings) entity.SerialSettings {
	s.Prefix = strings.ToUpper(strings.TrimSpace(width.Fold.String(s.Prefix)))
	s.Separator = strings.ToUpper(width.Fold.String(s.Separator))
	return s
}

// ValidateSerialSettings revisa prefijo, separador, formato de año y dígitos.
func ValidateSerialSettings(s entity.SerialSettings) error {
	if strings.TrimSpace(s.Prefix) == "" {
		return domain.Invalid("prefix", "requerido")
	}
	c := CanonicalSerialSettings(s)
	if c.Prefix != s.Prefix {
		return domain.Invalid("prefix", "debe ir en mayúsculas y sin espacios")
	}
	if c.Separator != s.Separator {
		return domain.Invalid("separator", "debe ir en mayúsculas")
	}
	if s.YearFormat != "YYYY" && s.YearFormat != "YY" {
		return domain.Invalid("year_format", "debe ser YYYY o YY")
	}
	if s.Digits < 3 || s.Digits > 12 {
		return domain.Invalid("digits", "entre 3 y 12")
	}
	return nil
}

// AdvanceSequence calcula la siguiente secuencia para year, reiniciando si corresponde.
func AdvanceSequence(s entity.SerialSettings, year int) entity.SerialSettings {
	if s.ResetYearly && s.CurrentYear != year {
		s.CurrentSequence = 0
	}
	s.CurrentYear = year
	s.CurrentSequence++
	return s
}

// FormatSerial arma el serial con la secuencia actual de s.
func FormatSerial(s entity.SerialSettings) string {
	s = CanonicalSerialSettings(s)
	year := strconv.Itoa(s.CurrentYear)
	if s.YearFormat == "YY" && len(year) > 2 {
		year = year[len(year)-2:]
	}
	return fmt.Sprintf("%s%s%s%s%0*d", s.Prefix, s.Separator, year, s.Separator, s.Digits, s.CurrentSequence)
}

// FormatBatchNumber PO-YYYYMM-NNNN.
func FormatBatchNumber(period string, seq int) string {
	return fmt.Sprintf("PO-%s-%04d", period, seq)
}
