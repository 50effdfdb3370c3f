package dto

import "time"

// LowStockItemDTO producto bajo el umbral de reposición.
type LowStockItemDTO struct {
	ProductID     int64  `json:"product_id"`
	Barcode       string `json:"barcode,omitempty"`
	Name          string `json:"name"`
	CategoryName  string `json:"category_name,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
	Critical      bool   `json:"critical"` // stock < 3, se resalta en rojo
	UnitsSold     int    `json:"units_sold"`
	Priority      int    `json:"priority"` // 1 = más urgente
}

// StockAlertDTO indicador del vigilante de stock.
type StockAlertDTO struct {
	LowStock  bool       `json:"low_stock"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// RefreshResponse resultado de POST /api/inventory/refresh.
type RefreshResponse struct {
	ProductCount  int       `json:"product_count"`
	LowStockCount int       `json:"low_stock_count"`
	FetchedAt     time.Time `json:"fetched_at"`
}
