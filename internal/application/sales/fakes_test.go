package sales_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	"github.com/jhoicas/kiosco-pos/internal/application/sales"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/inventory"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeSaleRepo struct {
	calls   atomic.Int32
	mu      sync.Mutex
	intents []entity.SaleIntent
	submit  func(entity.SaleIntent) (*entity.SaleRecord, error)
}

func (f *fakeSaleRepo) List(context.Context) ([]entity.SaleRecord, error) { return nil, nil }

func (f *fakeSaleRepo) Submit(_ context.Context, in entity.SaleIntent) (*entity.SaleRecord, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.intents = append(f.intents, in)
	f.mu.Unlock()
	if f.submit != nil {
		return f.submit(in)
	}
	return &entity.SaleRecord{ID: 1, DateTime: time.Now(), TotalAmount: decimal.NewFromInt(1)}, nil
}

type fakeSnapshots struct {
	mu         sync.Mutex
	current    *inventory.Snapshot
	afterSale  *inventory.Snapshot
	refreshErr error
	refreshes  int
}

func (f *fakeSnapshots) Current(context.Context) (*inventory.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeSnapshots) RefreshAfterCommit(context.Context) (*inventory.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.afterSale != nil {
		f.current = f.afterSale
	}
	return f.current, nil
}

type fakeInvalidator struct {
	mu       sync.Mutex
	sessions []auth.Session
}

func (f *fakeInvalidator) Invalidate(_ context.Context, s auth.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []sales.LowStockNotification
}

func (f *fakeNotifier) NotifyLowStock(_ context.Context, _ string, alerts []sales.LowStockNotification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alerts...)
}

// flakyCarts envuelve un almacén real y hace fallar los borrados mientras failDeletes > 0.
type flakyCarts struct {
	repository.CartRepository
	mu          sync.Mutex
	failDeletes int
	deletes     int
}

func (f *flakyCarts) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deletes++
	if f.failDeletes > 0 {
		f.failDeletes--
		f.mu.Unlock()
		return errors.New("almacén de carritos no disponible")
	}
	f.mu.Unlock()
	return f.CartRepository.Delete(ctx, key)
}

// sharedLock marca de cobro compartida por varios casos de uso, como dos réplicas sobre redis.
type sharedLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newSharedLock() *sharedLock { return &sharedLock{held: make(map[string]bool)} }

func (l *sharedLock) Acquire(_ context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, domain.ErrCheckoutInProgress
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}

func (l *sharedLock) Held(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key], nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func paid(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func snapshotOf(products ...entity.Product) *inventory.Snapshot {
	return inventory.NewSnapshot(products, time.Now())
}

var (
	alfajor = entity.Product{ID: 1, Barcode: "7790001", Name: "Alfajor", Price: price("500"), StockQuantity: 2}
	agua    = entity.Product{ID: 2, Barcode: "7790002", Name: "Agua", Price: price("1000.39"), StockQuantity: 20}
	chicle  = entity.Product{ID: 3, Barcode: "7790003", Name: "Chicle", Price: price("100"), StockQuantity: 0}
)

var seller = auth.Session{Username: "vendedor1", Roles: []string{"ROLE_USER"}, Token: "tok-123"}
