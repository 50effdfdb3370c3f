package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo libro de ventas autoritativo sobre PostgreSQL. Submit valida stock y precio con las
// filas de producto bloqueadas (SELECT ... FOR UPDATE) y descuenta el stock en la misma transacción.
type SaleRepo struct {
	q   Querier
	tx  *TxRunner
	now func() time.Time
}

// NewSaleRepository construye el adaptador. q se usa para lecturas; tx para Submit.
func NewSaleRepository(q Querier, tx *TxRunner) *SaleRepo {
	return &SaleRepo{q: q, tx: tx, now: time.Now}
}

// List devuelve todas las ventas con su detalle.
func (r *SaleRepo) List(ctx context.Context) ([]entity.SaleRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.id, s.date_time, s.total_amount, COALESCE(u.username, '')
		FROM sales s
		LEFT JOIN users u ON u.id = s.user_id
		ORDER BY s.date_time, s.id`)
	if err != nil {
		return nil, wrapQueryError("list sales", err)
	}
	var sales []entity.SaleRecord
	index := make(map[int64]int)
	for rows.Next() {
		var s entity.SaleRecord
		if err := rows.Scan(&s.ID, &s.DateTime, &s.TotalAmount, &s.SellerUsername); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		index[s.ID] = len(sales)
		sales = append(sales, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError("list sales", err)
	}
	if len(sales) == 0 {
		return sales, nil
	}

	drows, err := r.q.Query(ctx, `
		SELECT d.sale_id, d.product_id, COALESCE(p.name, ''), d.quantity, d.unit_price, d.subtotal
		FROM sale_details d
		LEFT JOIN products p ON p.id = d.product_id
		ORDER BY d.sale_id, d.id`)
	if err != nil {
		return nil, wrapQueryError("list sale details", err)
	}
	defer drows.Close()
	for drows.Next() {
		var saleID int64
		var d entity.SaleDetail
		if err := drows.Scan(&saleID, &d.ProductID, &d.ProductName, &d.Quantity, &d.UnitPrice, &d.Subtotal); err != nil {
			return nil, fmt.Errorf("scan sale detail: %w", err)
		}
		if i, ok := index[saleID]; ok {
			sales[i].Details = append(sales[i].Details, d)
		}
	}
	if err := drows.Err(); err != nil {
		return nil, wrapQueryError("list sale details", err)
	}
	return sales, nil
}

type lockedProduct struct {
	id    int64
	name  string
	price decimal.Decimal
	stock int
}

// Submit registra la venta del vendedor de la sesión en ctx.
//
// Rechaza con domain.ErrValidationRejected productos inexistentes, cantidades no positivas o
// stock insuficiente; en ese caso no se modifica nada. El precio de cada línea es el del
// catálogo al momento de confirmar.
func (r *SaleRepo) Submit(ctx context.Context, intent entity.SaleIntent) (*entity.SaleRecord, error) {
	sess, ok := auth.FromContext(ctx)
	if !ok || sess.Username == "" {
		return nil, fmt.Errorf("%w: venta sin sesión", domain.ErrUnauthenticated)
	}
	if len(intent.Lines) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene ítems", domain.ErrValidationRejected)
	}
	quantities := make(map[int64]int, len(intent.Lines))
	for _, l := range intent.Lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: cantidad inválida para el producto %d", domain.ErrValidationRejected, l.ProductID)
		}
		quantities[l.ProductID] += l.Quantity
	}

	rec := &entity.SaleRecord{SellerUsername: sess.Username, DateTime: r.now()}
	err := r.tx.Run(ctx, func(q Querier) error {
		var userID int64
		err := q.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, sess.Username).Scan(&userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: usuario no encontrado: %s", domain.ErrValidationRejected, sess.Username)
		}
		if err != nil {
			return wrapQueryError("get user", err)
		}

		// Bloquear en orden de ID para no generar deadlocks entre cajas.
		ids := make([]int64, 0, len(quantities))
		for id := range quantities {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		locked := make(map[int64]lockedProduct, len(ids))
		for _, id := range ids {
			var p lockedProduct
			err := q.QueryRow(ctx,
				`SELECT id, name, price, stock_quantity FROM products WHERE id = $1 FOR UPDATE`, id,
			).Scan(&p.id, &p.name, &p.price, &p.stock)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: producto no encontrado: %d", domain.ErrValidationRejected, id)
			}
			if err != nil {
				return wrapQueryError("lock product", err)
			}
			if p.stock < quantities[id] {
				return fmt.Errorf("%w: stock insuficiente para %s", domain.ErrValidationRejected, p.name)
			}
			locked[id] = p
		}

		total := decimal.Zero
		for _, l := range intent.Lines {
			p := locked[l.ProductID]
			subtotal := p.price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			rec.Details = append(rec.Details, entity.SaleDetail{
				ProductID:   p.id,
				ProductName: p.name,
				Quantity:    l.Quantity,
				UnitPrice:   p.price,
				Subtotal:    subtotal,
			})
			total = total.Add(subtotal)
		}
		rec.TotalAmount = total

		for _, id := range ids {
			if _, err := q.Exec(ctx,
				`UPDATE products SET stock_quantity = stock_quantity - $1 WHERE id = $2`,
				quantities[id], id,
			); err != nil {
				return wrapQueryError("update stock", err)
			}
		}

		if err := q.QueryRow(ctx,
			`INSERT INTO sales (date_time, total_amount, user_id) VALUES ($1, $2, $3) RETURNING id`,
			rec.DateTime, rec.TotalAmount, userID,
		).Scan(&rec.ID); err != nil {
			return wrapQueryError("insert sale", err)
		}
		for _, d := range rec.Details {
			if _, err := q.Exec(ctx,
				`INSERT INTO sale_details (sale_id, product_id, quantity, unit_price, subtotal) VALUES ($1, $2, $3, $4, $5)`,
				rec.ID, d.ProductID, d.Quantity, d.UnitPrice, d.Subtotal,
			); err != nil {
				return wrapQueryError("insert sale detail", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
