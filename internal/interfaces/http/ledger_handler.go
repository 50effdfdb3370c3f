package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
)

// LedgerHandler expone el libro de ventas con el mismo contrato JSON que el backend del
// kiosco (camelCase, errores {"message"}). Permite apuntar otra caja a este servicio.
type LedgerHandler struct {
	products repository.ProductRepository
	sales    repository.SaleRepository
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(products repository.ProductRepository, sales repository.SaleRepository) *LedgerHandler {
	return &LedgerHandler{products: products, sales: sales}
}

// ListProducts godoc
// @Summary      Catálogo completo (contrato del backend)
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LedgerProduct
// @Failure      503  {object}  dto.LedgerError
// @Router       /api/ledger/products [get]
func (h *LedgerHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.products.List(c.UserContext())
	if err != nil {
		return ledgerError(c, err)
	}
	out := make([]dto.LedgerProduct, 0, len(products))
	for _, p := range products {
		out = append(out, dto.LedgerProductFromEntity(p))
	}
	return c.JSON(out)
}

// ListSales godoc
// @Summary      Historial de ventas (contrato del backend)
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LedgerSale
// @Failure      503  {object}  dto.LedgerError
// @Router       /api/ledger/sales [get]
func (h *LedgerHandler) ListSales(c *fiber.Ctx) error {
	sales, err := h.sales.List(c.UserContext())
	if err != nil {
		return ledgerError(c, err)
	}
	out := make([]dto.LedgerSale, 0, len(sales))
	for _, s := range sales {
		out = append(out, dto.LedgerSaleFromEntity(s))
	}
	return c.JSON(out)
}

// CreateSale godoc
// @Summary      Registrar venta (contrato del backend)
// @Description  Valida stock y precios del lado del servidor y descuenta inventario en la misma transacción.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LedgerSaleRequest  true  "items: productId y quantity"
// @Success      201   {object}  dto.LedgerSale
// @Failure      400   {object}  dto.LedgerError
// @Failure      401   {object}  dto.LedgerError
// @Failure      403   {object}  dto.LedgerError
// @Failure      503   {object}  dto.LedgerError
// @Router       /api/ledger/sales [post]
func (h *LedgerHandler) CreateSale(c *fiber.Ctx) error {
	var in dto.LedgerSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.LedgerError{Message: "cuerpo inválido"})
	}
	sale, err := h.sales.Submit(c.UserContext(), in.ToIntent())
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.LedgerSaleFromEntity(*sale))
}

// ledgerError responde con los status que espera el cliente del backend.
func ledgerError(c *fiber.Ctx, err error) error {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, msg = fiber.StatusUnauthorized, "no autenticado"
	case errors.Is(err, domain.ErrForbidden):
		status, msg = fiber.StatusForbidden, "acceso denegado"
	case errors.Is(err, domain.ErrValidationRejected):
		status, msg = fiber.StatusBadRequest, "venta rechazada"
		if d := detailOf(err, domain.ErrValidationRejected); d != "" {
			msg = d
		}
	case errors.Is(err, domain.ErrNetworkFailure):
		status, msg = fiber.StatusServiceUnavailable, "servicio no disponible"
	default:
		logInternal(c, err)
		status, msg = fiber.StatusInternalServerError, internalMessage
	}
	return c.Status(status).JSON(dto.LedgerError{Message: msg})
}
