package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	appinventory "github.com/jhoicas/kiosco-pos/internal/application/inventory"
	"github.com/jhoicas/kiosco-pos/internal/application/sales"
)

// POSHandler caja registradora: búsqueda, carrito, cobro e historial (protegido).
type POSHandler struct {
	catalog *appinventory.CatalogUseCase
	cart    *sales.CartUseCase
	history *sales.HistoryUseCase
}

// NewPOSHandler construye el handler.
func NewPOSHandler(catalog *appinventory.CatalogUseCase, cart *sales.CartUseCase, history *sales.HistoryUseCase) *POSHandler {
	return &POSHandler{catalog: catalog, cart: cart, history: history}
}

// SearchProducts godoc
// @Summary      Buscar productos en el snapshot
// @Description  Coincidencia por nombre o código de barras, máximo 5 resultados. Sin q devuelve el inventario completo.
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        q    query  string  false  "Nombre o código de barras"
// @Success      200  {object}  dto.ProductListResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/pos/products [get]
func (h *POSHandler) SearchProducts(c *fiber.Ctx) error {
	out, err := h.catalog.Search(c.UserContext(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetCart godoc
// @Summary      Ver carrito
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        amount_paid  query  string  false  "Importe entregado, para calcular el vuelto"
// @Success      200  {object}  dto.CartView
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/pos/cart [get]
func (h *POSHandler) GetCart(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return writeError(c, errNoSession)
	}
	var amountPaid *decimal.Decimal
	if raw := strings.TrimSpace(c.Query("amount_paid")); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return badRequest(c, "VALIDATION", "amount_paid debe ser numérico")
		}
		amountPaid = &d
	}
	out, err := h.cart.Get(c.UserContext(), sess, amountPaid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddLine godoc
// @Summary      Agregar producto al carrito
// @Description  Suma una unidad (o crea la línea). Se indica product_id o barcode.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddLineRequest  true  "product_id o barcode"
// @Success      200   {object}  dto.CartView
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pos/cart/lines [post]
func (h *POSHandler) AddLine(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return writeError(c, errNoSession)
	}
	var in dto.AddLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	in.Barcode = strings.TrimSpace(in.Barcode)
	var (
		out *dto.CartView
		err error
	)
	switch {
	case in.ProductID > 0:
		out, err = h.cart.AddProduct(c.UserContext(), sess, in.ProductID)
	case in.Barcode != "":
		out, err = h.cart.AddByBarcode(c.UserContext(), sess, in.Barcode)
	default:
		return badRequest(c, "VALIDATION", "product_id o barcode es requerido")
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ChangeQuantity godoc
// @Summary      Cambiar cantidad de una línea
// @Description  Aplica delta (+1/-1). Si el resultado sería 0 o menos la línea queda igual; para quitarla use DELETE.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  int  true  "ID del producto"
// @Param        body       body  dto.ChangeQuantityRequest  true  "delta"
// @Success      200   {object}  dto.CartView
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pos/cart/lines/{productId} [patch]
func (h *POSHandler) ChangeQuantity(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return writeError(c, errNoSession)
	}
	productID, err := c.ParamsInt("productId")
	if err != nil || productID <= 0 {
		return badRequest(c, "MISSING_ID", "productId inválido")
	}
	var in dto.ChangeQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.Delta == 0 {
		return badRequest(c, "VALIDATION", "delta no puede ser 0")
	}
	out, err := h.cart.ChangeQuantity(c.UserContext(), sess, int64(productID), in.Delta)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveLine godoc
// @Summary      Quitar línea del carrito
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        productId  path  int  true  "ID del producto"
// @Success      200   {object}  dto.CartView
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pos/cart/lines/{productId} [delete]
func (h *POSHandler) RemoveLine(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return writeError(c, errNoSession)
	}
	productID, err := c.ParamsInt("productId")
	if err != nil || productID <= 0 {
		return badRequest(c, "MISSING_ID", "productId inválido")
	}
	out, err := h.cart.RemoveLine(c.UserContext(), sess, int64(productID))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ClearCart godoc
// @Summary      Cancelar venta
// @Description  Vacía el carrito de la sesión.
// @Tags         pos
// @Security     Bearer
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/pos/cart [delete]
func (h *POSHandler) ClearCart(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return writeError(c, errNoSession)
	}
	if err := h.cart.Clear(c.UserContext(), sess); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Checkout godoc
// @Summary      Cobrar
// @Description  Envía la venta al servicio de ventas. Si amount_paid se informa debe cubrir el total.
// @Tags         pos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  false  "amount_paid"
// @Success      201   {object}  dto.CheckoutResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/pos/checkout [post]
func (h *POSHandler) Checkout(c *fiber.Ctx) error {
	sess, ok := GetSession(c)
	if !ok {
		return writeError(c, errNoSession)
	}
	var in dto.CheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "cuerpo inválido")
		}
	}
	out, err := h.cart.Checkout(c.UserContext(), sess, in.AmountPaid)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListSales godoc
// @Summary      Historial de ventas
// @Description  De la más reciente a la más antigua.
// @Tags         pos
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.SaleListResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/pos/sales [get]
func (h *POSHandler) ListSales(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.history.List(c.UserContext(), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
