package dto

import "github.com/shopspring/decimal"

// AddLineRequest body para POST /api/pos/cart/lines. Se indica product_id o barcode (lector).
type AddLineRequest struct {
	ProductID int64  `json:"product_id,omitempty"`
	Barcode   string `json:"barcode,omitempty"`
}

// ChangeQuantityRequest body para PATCH /api/pos/cart/lines/:productId.
type ChangeQuantityRequest struct {
	Delta int `json:"delta"`
}

// CartLineDTO línea del carrito.
type CartLineDTO struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartView estado de la caja: líneas, total y vuelto para el importe informado.
type CartView struct {
	Lines       []CartLineDTO    `json:"lines"`
	Total       decimal.Decimal  `json:"total"`
	TotalLabel  string           `json:"total_label"`
	AmountPaid  *decimal.Decimal `json:"amount_paid,omitempty"`
	Change      *decimal.Decimal `json:"change,omitempty"` // puede ser negativo: falta dinero
	CanCheckout bool             `json:"can_checkout"`
	State       string           `json:"state"`
}
