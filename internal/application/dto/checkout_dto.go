package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutRequest body para POST /api/pos/checkout. amount_paid ausente o 0 = no informado.
type CheckoutRequest struct {
	AmountPaid *decimal.Decimal `json:"amount_paid,omitempty"`
}

// CheckoutResponse resultado de un cobro confirmado.
type CheckoutResponse struct {
	Reference      string                    `json:"reference"`
	Sale           SaleDTO                   `json:"sale"`
	Change         *decimal.Decimal          `json:"change,omitempty"`
	ChangeLabel    string                    `json:"change_label,omitempty"`
	LowStockAlerts []LowStockNotificationDTO `json:"low_stock_alerts"`
	RefreshFailed  bool                      `json:"refresh_failed,omitempty"`
	// CartClearFailed la venta quedó confirmada pero el carrito persistido no se pudo borrar;
	// la caja lo descarta en la próxima lectura.
	CartClearFailed bool `json:"cart_clear_failed,omitempty"`
}

// LowStockNotificationDTO aviso individual de stock bajo emitido después de una venta.
type LowStockNotificationDTO struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
	Title         string `json:"title"`
	Message       string `json:"message"`
}

// SaleDTO venta del historial.
type SaleDTO struct {
	ID          int64           `json:"id"`
	DateTime    time.Time       `json:"date_time"`
	Seller      string          `json:"seller"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalLabel  string          `json:"total_label"`
	Details     []SaleDetailDTO `json:"details"`
}

// SaleDetailDTO línea de detalle de una venta.
type SaleDetailDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleListResponse página del historial de ventas, de la más reciente a la más antigua.
type SaleListResponse struct {
	Items []SaleDTO    `json:"items"`
	Page  PageResponse `json:"page"`
}
