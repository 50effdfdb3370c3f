package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/kiosco-pos/internal/application/analytics"
	"github.com/jhoicas/kiosco-pos/internal/application/inventory"
	"github.com/jhoicas/kiosco-pos/internal/application/sales"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
)

// RoleAdmin rol requerido para operaciones de administración.
const RoleAdmin = "ADMIN"

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sessions  SessionAuthenticator
	CatalogUC *inventory.CatalogUseCase
	CartUC    *sales.CartUseCase
	HistoryUC *sales.HistoryUseCase
	Dashboard *appanalytics.DashboardUseCase
	LowStock  *inventory.LowStockUseCase
	// Ledger solo se expone cuando el servicio es dueño de la base (modo postgres).
	LedgerProducts repository.ProductRepository
	LedgerSales    repository.SaleRepository

	Logger *logger.Logger // errores no mapeados; nil los descarta
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals(localLogger, log)
		return c.Next()
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Sessions))

	// Caja
	pos := protected.Group("/pos")
	posHandler := NewPOSHandler(deps.CatalogUC, deps.CartUC, deps.HistoryUC)
	pos.Get("/products", posHandler.SearchProducts)
	pos.Get("/cart", posHandler.GetCart)
	pos.Delete("/cart", posHandler.ClearCart)
	pos.Post("/cart/lines", posHandler.AddLine)
	pos.Patch("/cart/lines/:productId", posHandler.ChangeQuantity)
	pos.Delete("/cart/lines/:productId", posHandler.RemoveLine)
	pos.Post("/checkout", posHandler.Checkout)
	pos.Get("/sales", posHandler.ListSales)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.Dashboard)
	protected.Get("/dashboard/summary", dashboardHandler.GetSummary)

	// Inventario
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.LowStock)
	inv.Get("/low-stock", inventoryHandler.GetLowStock)
	inv.Get("/stock-alert", inventoryHandler.GetStockAlert)
	inv.Post("/refresh", RequireRole(RoleAdmin), inventoryHandler.Refresh)

	if deps.LedgerProducts != nil && deps.LedgerSales != nil {
		ledger := protected.Group("/ledger")
		ledgerHandler := NewLedgerHandler(deps.LedgerProducts, deps.LedgerSales)
		ledger.Get("/products", ledgerHandler.ListProducts)
		ledger.Get("/sales", ledgerHandler.ListSales)
		ledger.Post("/sales", ledgerHandler.CreateSale)
	}
}
