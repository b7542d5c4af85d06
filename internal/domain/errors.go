package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrToolNotFound      = errors.New("herramienta no encontrada")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Préstamos y devoluciones.
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrInvalidState      = errors.New("el préstamo no está en un estado válido para la operación")
	ErrUnitMismatch      = errors.New("las unidades devueltas no coinciden con las prestadas")
	ErrAlreadySettled    = errors.New("el préstamo ya tiene una devolución registrada")

	// ErrTransactionFailed envuelve fallos del almacén durante una escritura (conexión, serialización).
	// No hay efectos parciales; el llamador puede reintentar la operación completa.
	ErrTransactionFailed = errors.New("la transacción falló")
)
