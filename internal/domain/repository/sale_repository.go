package repository

import (
	"context"

	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
)

// SaleRepository puerto hacia el servicio de ventas (libro de ventas).
//
// Submit es la única llamada que muta estado: la validación autoritativa de stock y precio
// ocurre del otro lado. Las implementaciones deben envolver sus fallas con los errores de
// domain: ErrUnauthenticated, ErrForbidden, ErrValidationRejected o ErrNetworkFailure.
type SaleRepository interface {
	// List devuelve el historial de ventas (fetchSales). Debe cubrir al menos el día de hoy
	// y la historia necesaria para el ranking de más vendidos.
	List(ctx context.Context) ([]entity.SaleRecord, error)
	// Submit confirma la venta (submitSale) y devuelve el registro creado.
	Submit(ctx context.Context, intent entity.SaleIntent) (*entity.SaleRecord, error)
}
