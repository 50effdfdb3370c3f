package http_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kiosco-pos/internal/application/analytics"
	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	appinventory "github.com/jhoicas/kiosco-pos/internal/application/inventory"
	"github.com/jhoicas/kiosco-pos/internal/application/sales"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/kiosco-pos/internal/interfaces/http"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
)

// fakeLedger libro de ventas en memoria: valida stock y descuenta como el backend real.
type fakeLedger struct {
	mu       sync.Mutex
	products map[int64]entity.Product
	sales    []entity.SaleRecord
	err      error // si no es nil, Submit falla con este error
}

func newFakeLedger(products ...entity.Product) *fakeLedger {
	l := &fakeLedger{products: make(map[int64]entity.Product)}
	for _, p := range products {
		l.products[p.ID] = p
	}
	return l
}

func (l *fakeLedger) List(context.Context) ([]entity.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entity.Product, 0, len(l.products))
	for id := int64(1); len(out) < len(l.products); id++ {
		if p, ok := l.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type ledgerSales struct{ *fakeLedger }

func (s ledgerSales) List(context.Context) ([]entity.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.SaleRecord(nil), s.sales...), nil
}

func (s ledgerSales) Submit(ctx context.Context, intent entity.SaleIntent) (*entity.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	sess, ok := auth.FromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	rec := entity.SaleRecord{ID: int64(len(s.sales) + 1), DateTime: time.Now(), SellerUsername: sess.Username, TotalAmount: decimal.Zero}
	for _, l := range intent.Lines {
		p, ok := s.products[l.ProductID]
		if !ok || p.StockQuantity < l.Quantity {
			return nil, fmt.Errorf("%w: stock insuficiente para %d", domain.ErrValidationRejected, l.ProductID)
		}
	}
	for _, l := range intent.Lines {
		p := s.products[l.ProductID]
		p.StockQuantity -= l.Quantity
		s.products[l.ProductID] = p
		sub := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		rec.TotalAmount = rec.TotalAmount.Add(sub)
		rec.Details = append(rec.Details, entity.SaleDetail{
			ProductID: p.ID, ProductName: p.Name, Quantity: l.Quantity, UnitPrice: p.Price, Subtotal: sub,
		})
	}
	s.sales = append(s.sales, rec)
	return &rec, nil
}

func product(id int64, name string, price int64, stock int) entity.Product {
	return entity.Product{ID: id, Barcode: fmt.Sprintf("77900%02d", id), Name: name, Price: decimal.NewFromInt(price), StockQuantity: stock}
}

// newTestServer arma la API completa sobre el libro en memoria.
func newTestServer(t *testing.T, ledger *fakeLedger, withLedgerRoutes bool) *fiber.App {
	t.Helper()
	return newLoggedTestServer(t, ledger, withLedgerRoutes, nil)
}

func newLoggedTestServer(t *testing.T, ledger *fakeLedger, withLedgerRoutes bool, log *logger.Logger) *fiber.App {
	t.Helper()
	sessions := auth.NewSessionUseCase(testJWTSecret)
	snaps := appinventory.NewSnapshotService(ledger)
	saleRepo := ledgerSales{ledger}
	processor := sales.NewProcessor(saleRepo, snaps, sessions, nil, nil)

	deps := apphttp.RouterDeps{
		Sessions:  sessions,
		CatalogUC: appinventory.NewCatalogUseCase(snaps),
		CartUC:    sales.NewCartUseCase(memory.NewCartStore(0), snaps, processor, nil),
		HistoryUC: sales.NewHistoryUseCase(saleRepo),
		Dashboard: analytics.NewDashboardUseCase(snaps, saleRepo),
		LowStock:  appinventory.NewLowStockUseCase(snaps, saleRepo, nil, nil),
		Logger:    log,
	}
	if withLedgerRoutes {
		deps.LedgerProducts = ledger
		deps.LedgerSales = saleRepo
	}
	app := fiber.New()
	apphttp.Router(app, deps)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
