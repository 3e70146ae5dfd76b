package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrCIAlreadyExists   = errors.New("la cédula ya está registrada")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrNoCopiesAvailable = errors.New("no hay copias disponibles")
	ErrInvalidTransition = errors.New("transición de estado de préstamo inválida")
	ErrTooManyAttempts   = errors.New("demasiados intentos, intente más tarde")
)
