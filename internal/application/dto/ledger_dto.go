package dto

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
)

// Contrato JSON del servicio de ventas del kiosco (camelCase). Lo usan el cliente HTTP
// para hablar con el backend y el handler /api/ledger para exponerlo en modo postgres.

// LedgerProduct producto tal como lo serializa el backend.
type LedgerProduct struct {
	ID            int64           `json:"id"`
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CategoryID    int64           `json:"categoryId,omitempty"`
	CategoryName  string          `json:"categoryName,omitempty"`
}

// LedgerSale venta confirmada.
type LedgerSale struct {
	ID          int64              `json:"id"`
	DateTime    LocalDateTime      `json:"dateTime"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Username    string             `json:"username"`
	Details     []LedgerSaleDetail `json:"details"`
}

// LedgerSaleDetail línea de una venta confirmada.
type LedgerSaleDetail struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// LedgerSaleRequest body de POST /sales: solo producto y cantidad.
type LedgerSaleRequest struct {
	Items []LedgerSaleItem `json:"items"`
}

// LedgerSaleItem ítem de la solicitud de venta.
type LedgerSaleItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// LedgerError cuerpo de error del backend.
type LedgerError struct {
	Message string `json:"message"`
}

const localDateTimeLayout = "2006-01-02T15:04:05"

// LocalDateTime fecha-hora sin zona ("2026-03-10T14:05:00") como la serializa el backend.
// Sin zona se interpreta en la hora local del proceso; también acepta RFC 3339.
type LocalDateTime struct {
	time.Time
}

// MarshalJSON serializa en hora local sin zona.
func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Local().Format(localDateTimeLayout) + `"`), nil
}

// UnmarshalJSON acepta fecha-hora local con o sin fracción de segundos, o RFC 3339.
func (t *LocalDateTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	v, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local)
	if err != nil {
		return fmt.Errorf("fecha inválida %q: %w", s, err)
	}
	t.Time = v
	return nil
}

// ToEntity convierte el producto del backend a la entidad.
func (p LedgerProduct) ToEntity() entity.Product {
	return entity.Product{
		ID:            p.ID,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CategoryID:    p.CategoryID,
		CategoryName:  p.CategoryName,
	}
}

// ToEntity convierte la venta del backend a la entidad.
func (s LedgerSale) ToEntity() entity.SaleRecord {
	details := make([]entity.SaleDetail, 0, len(s.Details))
	for _, d := range s.Details {
		details = append(details, entity.SaleDetail{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Subtotal:    d.Subtotal,
		})
	}
	return entity.SaleRecord{
		ID:             s.ID,
		DateTime:       s.DateTime.Time,
		SellerUsername: s.Username,
		TotalAmount:    s.TotalAmount,
		Details:        details,
	}
}

// LedgerProductFromEntity serializa la entidad con el contrato del backend.
func LedgerProductFromEntity(p entity.Product) LedgerProduct {
	return LedgerProduct{
		ID:            p.ID,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CategoryID:    p.CategoryID,
		CategoryName:  p.CategoryName,
	}
}

// LedgerSaleFromEntity serializa la venta con el contrato del backend.
func LedgerSaleFromEntity(s entity.SaleRecord) LedgerSale {
	details := make([]LedgerSaleDetail, 0, len(s.Details))
	for _, d := range s.Details {
		details = append(details, LedgerSaleDetail{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Subtotal:    d.Subtotal,
		})
	}
	return LedgerSale{
		ID:          s.ID,
		DateTime:    LocalDateTime{s.DateTime},
		TotalAmount: s.TotalAmount,
		Username:    s.SellerUsername,
		Details:     details,
	}
}

// ToIntent convierte la solicitud en intención de venta.
func (r LedgerSaleRequest) ToIntent() entity.SaleIntent {
	lines := make([]entity.SaleIntentLine, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, entity.SaleIntentLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return entity.SaleIntent{Lines: lines}
}

// LedgerSaleRequestFromIntent arma el body de POST /sales.
func LedgerSaleRequestFromIntent(in entity.SaleIntent) LedgerSaleRequest {
	items := make([]LedgerSaleItem, 0, len(in.Lines))
	for _, l := range in.Lines {
		items = append(items, LedgerSaleItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return LedgerSaleRequest{Items: items}
}
