package inventory

import (
	"strings"
	"time"

	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
)

// Umbrales de reposición.
const (
	LowStockThreshold      = 5 // stock < 5 → stock bajo
	CriticalStockThreshold = 3 // stock < 3 → crítico
)

// DefaultSearchLimit cantidad de resultados del buscador de la caja.
const DefaultSearchLimit = 5

// IsLowStock indica si una cantidad está por debajo del umbral de reposición.
func IsLowStock(stock int) bool { return stock < LowStockThreshold }

// IsCriticalStock indica si una cantidad está por debajo del umbral crítico.
func IsCriticalStock(stock int) bool { return stock < CriticalStockThreshold }

// Snapshot copia puntual del inventario en poder de la caja. Inmutable tras construirse:
// solo se reemplaza completo con una nueva consulta al catálogo. Puede estar desactualizado
// respecto del servidor, que es la autoridad sobre el stock.
type Snapshot struct {
	products  []entity.Product
	byID      map[int64]int
	byBarcode map[string]int
	fetchedAt time.Time
}

// NewSnapshot construye el snapshot copiando products.
func NewSnapshot(products []entity.Product, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		products:  make([]entity.Product, len(products)),
		byID:      make(map[int64]int, len(products)),
		byBarcode: make(map[string]int, len(products)),
		fetchedAt: fetchedAt,
	}
	copy(s.products, products)
	for i, p := range s.products {
		s.byID[p.ID] = i
		if p.Barcode != "" {
			s.byBarcode[p.Barcode] = i
		}
	}
	return s
}

// FetchedAt momento de la consulta que originó el snapshot.
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// Len cantidad de productos.
func (s *Snapshot) Len() int { return len(s.products) }

// Product busca un producto por ID.
func (s *Snapshot) Product(id int64) (entity.Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return entity.Product{}, false
	}
	return s.products[i], true
}

// ProductByBarcode busca un producto por código de barras exacto.
func (s *Snapshot) ProductByBarcode(barcode string) (entity.Product, bool) {
	i, ok := s.byBarcode[strings.TrimSpace(barcode)]
	if !ok {
		return entity.Product{}, false
	}
	return s.products[i], true
}

// StockOf devuelve el stock registrado en el snapshot; 0 si el producto no figura.
func (s *Snapshot) StockOf(id int64) int {
	p, ok := s.Product(id)
	if !ok {
		return 0
	}
	return p.StockQuantity
}

// Products devuelve una copia de los productos en el orden recibido del catálogo.
func (s *Snapshot) Products() []entity.Product {
	out := make([]entity.Product, len(s.products))
	copy(out, s.products)
	return out
}

// AnyLowStock indica si al menos un producto tiene stock < LowStockThreshold.
func (s *Snapshot) AnyLowStock() bool {
	for _, p := range s.products {
		if IsLowStock(p.StockQuantity) {
			return true
		}
	}
	return false
}

// Search filtra por nombre (sin distinguir mayúsculas) o por código de barras parcial.
// limit <= 0 usa DefaultSearchLimit. Un término vacío no devuelve resultados.
func (s *Snapshot) Search(term string, limit int) []entity.Product {
	term = strings.TrimSpace(term)
	if term == "" {
		return []entity.Product{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := strings.ToLower(term)
	out := make([]entity.Product, 0, limit)
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(p.Barcode, term) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
