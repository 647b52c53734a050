package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Cada error tipado de abajo responde a errors.Is con su centinela.
var (
	ErrNotFound       = errors.New("cliente no encontrado")
	ErrValidation     = errors.New("entidad inválida")
	ErrInvalidPayment = errors.New("pago inválido")
	ErrMalformedDate  = errors.New("fecha mal formada")
	ErrPersistence    = errors.New("almacenamiento no disponible")
	ErrCollaborator   = errors.New("servicio de análisis no disponible")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrClosed         = errors.New("almacén cerrado")
)

// ValidationError campo de una entidad que viola las restricciones del modelo.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidPaymentError monto no positivo o firma ausente.
type InvalidPaymentError struct {
	Reason string
}

func (e *InvalidPaymentError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidPayment, e.Reason)
}

func (e *InvalidPaymentError) Unwrap() error { return ErrInvalidPayment }

// NotFoundError operación sobre un id de cliente desconocido.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: id=%s", ErrNotFound, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// MalformedDateError entrada de aritmética de fechas que no se puede interpretar.
type MalformedDateError struct {
	Input string
	Err   error
}

func (e *MalformedDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %q: %v", ErrMalformedDate, e.Input, e.Err)
	}
	return fmt.Sprintf("%s: %q", ErrMalformedDate, e.Input)
}

// Unwrap permite errors.Is tanto con ErrMalformedDate como con la causa de parseo.
func (e *MalformedDateError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedDate}
	}
	return []error{ErrMalformedDate, e.Err}
}

// PersistenceError el medio durable no se pudo leer o escribir.
type PersistenceError struct {
	Op  string // read, write, decode, encode, watch
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// CollaboratorError falla opaca del servicio externo de insights.
type CollaboratorError struct {
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCollaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() []error { return []error{ErrCollaborator, e.Err} }
