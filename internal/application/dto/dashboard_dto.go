package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	TodayRevenue      decimal.Decimal `json:"today_revenue"` // ventas del día calendario local
	TodayRevenueLabel string          `json:"today_revenue_label"`
	ProductCount      int             `json:"product_count"`
	SalesCount        int             `json:"sales_count"`

	LowStock    []LowStockItemDTO `json:"low_stock"` // stock ascendente
	AnyLowStock bool              `json:"any_low_stock"`

	// Top 5 de todo el historial por unidades vendidas
	TopSellers []TopSellerDTO `json:"top_sellers"`

	DateLabel string `json:"date_label"` // ej: "19 de Octubre 2026"
}

// TopSellerDTO producto del ranking de más vendidos.
type TopSellerDTO struct {
	ProductName       string `json:"product_name"`
	TotalQuantitySold int    `json:"total_quantity_sold"`
}
