// @title                       Kiosco POS API
// @version                     1.0
// @description                 Caja registradora del kiosco: carrito, cobro, stock bajo y dashboard.
// @host                        localhost:8090
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goredis "github.com/redis/go-redis/v9"

	_ "github.com/jhoicas/kiosco-pos/docs"
	appanalytics "github.com/jhoicas/kiosco-pos/internal/application/analytics"
	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	"github.com/jhoicas/kiosco-pos/internal/application/inventory"
	"github.com/jhoicas/kiosco-pos/internal/application/sales"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/internal/infrastructure/kiosco"
	"github.com/jhoicas/kiosco-pos/internal/infrastructure/memory"
	"github.com/jhoicas/kiosco-pos/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/kiosco-pos/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/kiosco-pos/internal/interfaces/http"
	"github.com/jhoicas/kiosco-pos/pkg/config"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
	"github.com/jhoicas/kiosco-pos/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("upstream", cfg.Upstream.Mode).
		Str("cart_store", cfg.Cart.Store).
		Msg("iniciando aplicación")

	// "Ventas de hoy" se calcula con la fecha local del kiosco.
	if cfg.App.Timezone != "" {
		loc, err := time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			log.Fatal().Err(err).Str("timezone", cfg.App.Timezone).Msg("zona horaria inválida")
		}
		time.Local = loc
	}

	ctx := context.Background()

	// Catálogo y libro de ventas: API del backend o base propia.
	var (
		productRepo    repository.ProductRepository
		saleRepo       repository.SaleRepository
		ledgerProducts repository.ProductRepository
		ledgerSales    repository.SaleRepository
	)
	switch cfg.Upstream.Mode {
	case config.UpstreamPostgres:
		if cfg.DB.Migrate {
			if err := postgres.RunMigrations(cfg.DB.ConnectionString()); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Msg("migraciones aplicadas")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner := postgres.NewTxRunner(pool)
		productRepo = postgres.NewProductRepository(pool)
		saleRepo = postgres.NewSaleRepository(pool, txRunner)
		ledgerProducts, ledgerSales = productRepo, saleRepo
	default:
		client := kiosco.NewClient(kiosco.Options{
			BaseURL:            cfg.Upstream.BaseURL,
			ServiceToken:       cfg.Upstream.ServiceToken,
			BreakerMaxFailures: cfg.Upstream.BreakerMaxFailures,
			BreakerOpenTimeout: cfg.Upstream.BreakerOpenTimeout,
			Logger:             log.Component("kiosco"),
		})
		productRepo = client
		saleRepo = client.Sales()
	}

	var (
		cartRepo     repository.CartRepository
		checkoutLock repository.CheckoutLock
	)
	switch cfg.Cart.Store {
	case config.CartStoreRedis:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		store := infraredis.NewCartStore(rdb, cfg.Cart.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := store.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		cartRepo = store
		// Con varias réplicas el cobro en vuelo se marca en Redis, no solo en memoria.
		checkoutLock = infraredis.NewCheckoutLock(rdb, cfg.Cart.SubmitLockTTL)
	default:
		cartRepo = memory.NewCartStore(cfg.Cart.TTL)
	}

	sessionUC := auth.NewSessionUseCase(cfg.JWT.Secret)
	snapshots := inventory.NewSnapshotService(productRepo)
	watcher := inventory.NewStockWatcher(snapshots, cfg.Watcher.Interval, log.Component("stock_watcher"))

	processor := sales.NewProcessor(saleRepo, snapshots, sessionUC, sales.NewLogNotifier(log.Component("notifier")), log.Component("checkout"))
	cartUC := sales.NewCartUseCase(cartRepo, snapshots, processor, log.Component("cart"))
	if checkoutLock != nil {
		cartUC.WithCheckoutLock(checkoutLock)
	}
	historyUC := sales.NewHistoryUseCase(saleRepo)
	catalogUC := inventory.NewCatalogUseCase(snapshots)
	lowStockUC := inventory.NewLowStockUseCase(snapshots, saleRepo, watcher, log.Component("low_stock"))
	dashboardUC := appanalytics.NewDashboardUseCase(snapshots, saleRepo)

	// El vigilante consulta con el token de servicio, sin sesión de usuario.
	watchCtx := auth.WithSession(ctx, auth.Session{Username: "stock-watcher", Token: cfg.Upstream.ServiceToken})
	watcher.Start(watchCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kiosco POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "low_stock": watcher.LowStock()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sessions:       sessionUC,
		CatalogUC:      catalogUC,
		CartUC:         cartUC,
		HistoryUC:      historyUC,
		Dashboard:      dashboardUC,
		LowStock:       lowStockUC,
		LedgerProducts: ledgerProducts,
		LedgerSales:    ledgerSales,
		Logger:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	watcher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
