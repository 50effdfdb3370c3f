package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiosco-pos/internal/application/inventory"
)

// InventoryHandler stock bajo, indicador del vigilante y recarga del snapshot (protegido).
type InventoryHandler struct {
	lowStock *inventory.LowStockUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(lowStock *inventory.LowStockUseCase) *InventoryHandler {
	return &InventoryHandler{lowStock: lowStock}
}

// GetLowStock godoc
// @Summary      Lista de stock bajo
// @Description  Productos con stock menor a 5, del más urgente al menos urgente. critical = stock menor a 3.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LowStockItemDTO
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.lowStock.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(items)
}

// GetStockAlert godoc
// @Summary      Indicador de stock bajo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockAlertDTO
// @Router       /api/inventory/stock-alert [get]
func (h *InventoryHandler) GetStockAlert(c *fiber.Ctx) error {
	return c.JSON(h.lowStock.Alert())
}

// Refresh godoc
// @Summary      Recargar inventario
// @Description  Fuerza una consulta completa del catálogo. Solo administradores.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RefreshResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/inventory/refresh [post]
func (h *InventoryHandler) Refresh(c *fiber.Ctx) error {
	out, err := h.lowStock.Refresh(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
