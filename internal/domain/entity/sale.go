package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord representa una venta confirmada del libro de ventas. Inmutable una vez creada.
type SaleRecord struct {
	ID             int64
	DateTime       time.Time
	SellerUsername string
	TotalAmount    decimal.Decimal
	Details        []SaleDetail
}

// SaleDetail representa una línea de detalle de una venta confirmada.
// UnitPrice es el precio autoritativo que aplicó el servidor al confirmar.
type SaleDetail struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// SaleIntent es la solicitud de cobro saliente. No lleva precios: precio y existencia
// los vuelve a validar el servicio de ventas.
type SaleIntent struct {
	Lines []SaleIntentLine
}

// SaleIntentLine par producto/cantidad de la intención de venta.
type SaleIntentLine struct {
	ProductID int64
	Quantity  int
}
