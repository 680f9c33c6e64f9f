package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInvalidTransition   = errors.New("transición de estado no permitida")
	ErrOverReceipt         = errors.New("la cantidad recibida excede la solicitada")
	ErrDeviceNotAvailable  = errors.New("el dispositivo no está disponible")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintentar")
	ErrPersistence         = errors.New("error de persistencia")
	ErrUnauthorized        = errors.New("no autorizado")
)

// ErrBatchNotReceivable es una transición inválida: el lote no admite recepción en su estado actual.
var ErrBatchNotReceivable = fmt.Errorf("%w: el lote no admite recepción", ErrInvalidTransition)

// ValidationError detalla qué campo falló. errors.Is(err, ErrInvalidInput) es true.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid construye un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TransitionError describe una transición rechazada por una máquina de estados (lote o dispositivo).
type TransitionError struct {
	Entity string // "batch" | "device"
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s no permitido desde %q", e.Entity, e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NotAvailableError indica el estado real del dispositivo que no estaba disponible.
type NotAvailableError struct {
	Serial string
	Status string
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("dispositivo %s no disponible (%s)", e.Serial, e.Status)
}

func (e *NotAvailableError) Is(target error) bool {
	return target == ErrDeviceNotAvailable
}

// IsBusinessError indica si el error es una regla de negocio (nunca se reintenta automáticamente).
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrOverReceipt) ||
		errors.Is(err, ErrDeviceNotAvailable) ||
		errors.Is(err, ErrNotFound)
}
