package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"merygarcia/internal/borrador"

	"gorm.io/gorm"
)

// Domain errors. Handlers map them to HTTP status with errors.Is.
var (
	ErrValidacion      = errors.New("datos invalidos")
	ErrConciliacion    = errors.New("los pagos no concilian con el total")
	ErrTipoCambio      = errors.New("tipo de cambio no disponible")
	ErrNumeroDuplicado = errors.New("el numero de comanda ya existe")
	ErrNoEncontrado    = errors.New("recurso no encontrado")
	ErrEstadoInvalido  = borrador.ErrTransicionInvalida
)

// ValidacionError carries one message per offending field.
type ValidacionError struct {
	Campos map[string]string
}

func (e *ValidacionError) Error() string {
	keys := make([]string, 0, len(e.Campos))
	for k := range e.Campos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Campos[k])
	}
	return ErrValidacion.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidacionError) Is(target error) bool { return target == ErrValidacion }

func campoInvalido(campo, msg string) error {
	return &ValidacionError{Campos: map[string]string{campo: msg}}
}

// validacion returns nil when campos is empty.
func validacion(campos map[string]string) error {
	if len(campos) == 0 {
		return nil
	}
	return &ValidacionError{Campos: campos}
}

// noEncontrado turns gorm's not-found into ErrNoEncontrado and passes anything else through.
func noEncontrado(err error, recurso string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", recurso, ErrNoEncontrado)
	}
	return err
}
