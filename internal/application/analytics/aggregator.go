package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/inventory"
)

// DefaultTopSellers cantidad de productos del ranking de más vendidos.
const DefaultTopSellers = 5

// LowStockEntry producto bajo el umbral de reposición. Derivado, no se persiste.
type LowStockEntry struct {
	Product  entity.Product
	Critical bool // stock < 3
}

// TopSellerEntry cantidad total vendida de un producto en todo el historial.
type TopSellerEntry struct {
	ProductName       string
	TotalQuantitySold int
}

// TodaysRevenue suma TotalAmount de las ventas cuya fecha calendario local coincide con la
// de now. La fecha se toma en la zona de now, no con corte UTC.
func TodaysRevenue(sales []entity.SaleRecord, now time.Time) decimal.Decimal {
	y, m, d := now.Date()
	total := decimal.Zero
	for _, s := range sales {
		sy, sm, sd := s.DateTime.In(now.Location()).Date()
		if sy == y && sm == m && sd == d {
			total = total.Add(s.TotalAmount)
		}
	}
	return total
}

// LowStock devuelve los productos con stock < 5, de más urgente a menos urgente
// (stock ascendente, empate por nombre). Marca como críticos los que tienen stock < 3.
func LowStock(products []entity.Product) []LowStockEntry {
	out := make([]LowStockEntry, 0)
	for _, p := range products {
		if !inventory.IsLowStock(p.StockQuantity) {
			continue
		}
		out = append(out, LowStockEntry{Product: p, Critical: inventory.IsCriticalStock(p.StockQuantity)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Product, out[j].Product
		if a.StockQuantity != b.StockQuantity {
			return a.StockQuantity < b.StockQuantity
		}
		return a.Name < b.Name
	})
	return out
}

// TopSellers agrupa todas las líneas de detalle por nombre de producto sumando cantidades,
// ordena de mayor a menor y devuelve los primeros limit. Empates: nombre ascendente.
// limit <= 0 usa DefaultTopSellers.
func TopSellers(sales []entity.SaleRecord, limit int) []TopSellerEntry {
	if limit <= 0 {
		limit = DefaultTopSellers
	}
	totals := make(map[string]int)
	for _, s := range sales {
		for _, d := range s.Details {
			totals[d.ProductName] += d.Quantity
		}
	}
	out := make([]TopSellerEntry, 0, len(totals))
	for name, qty := range totals {
		out = append(out, TopSellerEntry{ProductName: name, TotalQuantitySold: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuantitySold != out[j].TotalQuantitySold {
			return out[i].TotalQuantitySold > out[j].TotalQuantitySold
		}
		return out[i].ProductName < out[j].ProductName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortByDateDesc devuelve una copia del historial de la más reciente a la más antigua.
func SortByDateDesc(sales []entity.SaleRecord) []entity.SaleRecord {
	out := make([]entity.SaleRecord, len(sales))
	copy(out, sales)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out
}

// UnitsSoldByProduct total vendido por producto (ID) en todo el historial.
func UnitsSoldByProduct(sales []entity.SaleRecord) map[int64]int {
	out := make(map[int64]int)
	for _, s := range sales {
		for _, d := range s.Details {
			out[d.ProductID] += d.Quantity
		}
	}
	return out
}
