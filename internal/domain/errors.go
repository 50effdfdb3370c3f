package domain

import "errors"

// Errores de dominio (sin dependencias externas).
//
// Guardas locales: se resuelven en el cliente, nunca llegan a la red y nunca mutan el carrito.
var (
	ErrOutOfStock          = errors.New("producto sin stock disponible")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrInsufficientPayment = errors.New("el monto pagado no cubre el total")
	ErrEmptyCart           = errors.New("el carrito está vacío")
	ErrCheckoutInProgress  = errors.New("hay un cobro en curso para esta caja")
)

// Errores que solo aparecen después de un viaje de ida y vuelta al servicio de ventas.
var (
	ErrUnauthenticated    = errors.New("sesión expirada o no autenticada")
	ErrForbidden          = errors.New("permisos insuficientes")
	ErrValidationRejected = errors.New("venta rechazada por el servidor")
	ErrNetworkFailure     = errors.New("sin conexión con el servicio de ventas")
)

// Errores genéricos de entrada y búsqueda.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
)

// IsRemote indica si err proviene del servicio autoritativo (y no de una guarda local).
func IsRemote(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrValidationRejected) ||
		errors.Is(err, ErrNetworkFailure)
}
