package repository

import (
	"context"

	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
)

// ProductRepository puerto de lectura del catálogo externo (DIP).
// El núcleo nunca escribe productos: solo pide el inventario completo, stock incluido.
type ProductRepository interface {
	// List devuelve el inventario completo (fetchProducts).
	List(ctx context.Context) ([]entity.Product, error)
}
