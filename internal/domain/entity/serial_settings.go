package entity

import "time"

// SerialSettings formato y secuencia del generador de seriales.
type SerialSettings struct {
	Prefix          string // "BI"
	Separator       string // "-"
	YearFormat      string // "YYYY" | "YY"
	Digits          int
	ResetYearly     bool
	CurrentYear     int
	CurrentSequence int64
	UpdatedAt       time.Time
}
