package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const selectProducts = `
	SELECT p.id, COALESCE(p.barcode, ''), p.name, p.price, p.stock_quantity,
	       COALESCE(p.category_id, 0), COALESCE(c.name, '')
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// List devuelve el catálogo completo ordenado por nombre.
func (r *ProductRepo) List(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.q.Query(ctx, selectProducts+` ORDER BY p.name, p.id`)
	if err != nil {
		return nil, wrapQueryError("list products", err)
	}
	defer rows.Close()

	var list []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Barcode, &p.Name, &p.Price, &p.StockQuantity, &p.CategoryID, &p.CategoryName); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError("list products", err)
	}
	return list, nil
}
