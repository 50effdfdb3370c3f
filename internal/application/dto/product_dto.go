package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/inventory"
	"github.com/jhoicas/kiosco-pos/pkg/money"
)

// ProductResponse producto del snapshot tal como lo ve la caja.
type ProductResponse struct {
	ID            int64           `json:"id"`
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	PriceLabel    string          `json:"price_label"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    int64           `json:"category_id,omitempty"`
	CategoryName  string          `json:"category_name,omitempty"`
	LowStock      bool            `json:"low_stock"`
}

// ProductListResponse resultado de GET /api/pos/products.
type ProductListResponse struct {
	Items     []ProductResponse `json:"items"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// ToProductResponse mapea la entidad al DTO.
func ToProductResponse(p entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Price:         p.Price,
		PriceLabel:    money.Format(p.Price),
		StockQuantity: p.StockQuantity,
		CategoryID:    p.CategoryID,
		CategoryName:  p.CategoryName,
		LowStock:      inventory.IsLowStock(p.StockQuantity),
	}
}
