package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
)

// localLogger clave de Locals con el logger de la API.
const localLogger = "logger"

const internalMessage = "error interno"

var errNoSession = fmt.Errorf("%w: sesión no encontrada", domain.ErrUnauthenticated)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Orden relevante: el primero que coincide con errors.Is gana.
var errorMappings = []errorMapping{
	{domain.ErrOutOfStock, fiber.StatusConflict, "OUT_OF_STOCK", "producto sin stock"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "no hay más stock disponible para este producto"},
	{domain.ErrCheckoutInProgress, fiber.StatusConflict, "CHECKOUT_IN_PROGRESS", "hay un cobro en curso, espere a que termine"},
	{domain.ErrInsufficientPayment, fiber.StatusUnprocessableEntity, "INSUFFICIENT_PAYMENT", "el monto pagado es insuficiente"},
	{domain.ErrEmptyCart, fiber.StatusUnprocessableEntity, "EMPTY_CART", "el carrito está vacío"},
	{domain.ErrUnauthenticated, fiber.StatusUnauthorized, "SESSION_EXPIRED", "sesión expirada, inicie sesión nuevamente"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "no tiene permisos para esta operación"},
	{domain.ErrValidationRejected, fiber.StatusUnprocessableEntity, "SALE_REJECTED", "error al procesar la venta"},
	{domain.ErrNetworkFailure, fiber.StatusBadGateway, "NETWORK_FAILURE", "no se pudo contactar al servicio de ventas"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
}

// writeError traduce los errores de dominio a status + ErrorResponse. Los rechazos del servicio
// de ventas incluyen el mensaje del servidor cuando lo hay.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		msg := m.message
		if errors.Is(err, domain.ErrValidationRejected) || errors.Is(err, domain.ErrInsufficientPayment) {
			if detail := detailOf(err, m.err); detail != "" {
				msg = msg + ": " + detail
			}
		}
		return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
	}
	logInternal(c, err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: internalMessage})
}

// logInternal registra un error no mapeado; al cliente solo le llega un mensaje fijo.
func logInternal(c *fiber.Ctx, err error) {
	requestLogger(c).Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no mapeado")
}

func requestLogger(c *fiber.Ctx) *logger.Logger {
	if l, ok := c.Locals(localLogger).(*logger.Logger); ok {
		return l
	}
	return logger.Nop()
}

// detailOf extrae el texto agregado después del sentinel ("<sentinel>: detalle").
func detailOf(err, sentinel error) string {
	s := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(s, marker); i >= 0 {
		return s[i+len(marker):]
	}
	return ""
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
