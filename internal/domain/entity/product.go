package entity

import "github.com/shopspring/decimal"

// Product representa un producto del catálogo del kiosco tal como lo entrega el servicio externo.
// El núcleo de ventas lo trata como solo lectura: StockQuantity puede estar desactualizado
// respecto de ventas concurrentes en otras cajas.
type Product struct {
	ID            int64
	Barcode       string // código de barras, único, lo escanea el cajero
	Name          string
	Price         decimal.Decimal // precio de venta vigente
	StockQuantity int
	CategoryID    int64
	CategoryName  string
}
