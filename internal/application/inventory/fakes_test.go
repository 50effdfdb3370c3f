package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
)

// fakeProducts ProductRepository programable: list recibe el número de llamada (desde 1).
type fakeProducts struct {
	calls    atomic.Int32
	list     func(call int) ([]entity.Product, error)
	honorCtx bool // como el cliente HTTP: un contexto cancelado aborta la consulta
}

func (f *fakeProducts) List(ctx context.Context) ([]entity.Product, error) {
	n := int(f.calls.Add(1))
	products, err := f.list(n)
	if f.honorCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return products, err
}

func staticProducts(products ...entity.Product) *fakeProducts {
	return &fakeProducts{list: func(int) ([]entity.Product, error) { return products, nil }}
}

type fakeSales struct {
	mu    sync.Mutex
	sales []entity.SaleRecord
	err   error
}

func (f *fakeSales) List(context.Context) ([]entity.SaleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sales, f.err
}

func (f *fakeSales) Submit(context.Context, entity.SaleIntent) (*entity.SaleRecord, error) {
	return nil, errors.New("no implementado")
}
