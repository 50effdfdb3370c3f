// Package pos contiene el agregado Carrito de la caja registradora y su máquina de estados de cobro.
package pos

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
)

// CartLine es una línea del carrito. UnitPrice se congela al agregar el producto y no se vuelve
// a consultar: un cambio de precio concurrente en el catálogo no altera un carrito en curso.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal devuelve UnitPrice × Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart agregado mutable del lado de la caja. El orden de inserción es el orden de despliegue.
// Invariante: a lo sumo una línea por producto, cantidad >= 1.
// No es seguro para uso concurrente; lo posee una única sesión de cobro.
type Cart struct {
	lines []CartLine
}

// NewCart crea un carrito vacío.
func NewCart() *Cart {
	return &Cart{}
}

// RestoreCart reconstruye un carrito persistido. Descarta líneas con cantidad < 1 y
// fusiona duplicados para no romper el invariante de una línea por producto.
func RestoreCart(lines []CartLine) *Cart {
	c := &Cart{lines: make([]CartLine, 0, len(lines))}
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		if i := c.indexOf(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// AddLine agrega una unidad de product contra el stock del snapshot vigente.
//   - snapshotStock <= 0: ErrOutOfStock.
//   - línea existente: incrementa en 1, o ErrInsufficientStock sin tocar el carrito.
//   - línea nueva: cantidad 1 con el precio actual del producto congelado.
func (c *Cart) AddLine(product entity.Product, snapshotStock int) error {
	if snapshotStock <= 0 {
		return domain.ErrOutOfStock
	}
	if i := c.indexOf(product.ID); i >= 0 {
		if c.lines[i].Quantity+1 > snapshotStock {
			return domain.ErrInsufficientStock
		}
		c.lines[i].Quantity++
		return nil
	}
	c.lines = append(c.lines, CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  1,
	})
	return nil
}

// ChangeQuantity suma delta a la cantidad de la línea productID.
// Si el resultado es <= 0 no hace nada. Si supera snapshotStock tampoco cambia el estado,
// pero devuelve ErrInsufficientStock para que la caja avise al operador. Vale también para
// una baja que sigue por encima del stock vigente.
// Una línea inexistente es un no-op.
func (c *Cart) ChangeQuantity(productID int64, delta int, snapshotStock int) error {
	i := c.indexOf(productID)
	if i < 0 {
		return nil
	}
	newQty := c.lines[i].Quantity + delta
	if newQty <= 0 {
		return nil
	}
	if newQty > snapshotStock {
		return domain.ErrInsufficientStock
	}
	c.lines[i].Quantity = newQty
	return nil
}

// RemoveLine quita la línea sin condiciones; no falla si no existe.
func (c *Cart) RemoveLine(productID int64) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// Total devuelve Σ UnitPrice × Quantity. Sin efectos secundarios.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Change devuelve el vuelto: amountPaid - Total(). Puede ser negativo.
func (c *Cart) Change(amountPaid decimal.Decimal) decimal.Decimal {
	return amountPaid.Sub(c.Total())
}

// CanCheckout indica si el botón de cobro debe estar habilitado.
// amountPaid nil o cero significa "no informado" (la caja permite cobrar sin calcular vuelto).
func (c *Cart) CanCheckout(amountPaid *decimal.Decimal) bool {
	if c.IsEmpty() {
		return false
	}
	if PaymentInformed(amountPaid) && c.Change(*amountPaid).IsNegative() {
		return false
	}
	return true
}

// Clear vacía el carrito (cobro confirmado o cancelación explícita).
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines devuelve una copia de las líneas en orden de inserción.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line devuelve la línea de productID, si existe.
func (c *Cart) Line(productID int64) (CartLine, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

// Len cantidad de líneas.
func (c *Cart) Len() int { return len(c.lines) }

// IsEmpty indica si el carrito no tiene líneas.
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Intent construye la intención de venta: solo pares producto/cantidad, nunca precios.
func (c *Cart) Intent() entity.SaleIntent {
	lines := make([]entity.SaleIntentLine, 0, len(c.lines))
	for _, l := range c.lines {
		lines = append(lines, entity.SaleIntentLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return entity.SaleIntent{Lines: lines}
}

func (c *Cart) indexOf(productID int64) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// PaymentInformed indica si el operador informó un monto de pago (> 0).
func PaymentInformed(amountPaid *decimal.Decimal) bool {
	return amountPaid != nil && amountPaid.IsPositive()
}
