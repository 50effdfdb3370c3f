package sales_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kiosco-pos/internal/application/sales"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/pos"
	"github.com/jhoicas/kiosco-pos/internal/infrastructure/memory"
)

type cartFixture struct {
	repo  *fakeSaleRepo
	snaps *fakeSnapshots
	uc    *sales.CartUseCase
}

func newCartUseCase() *cartFixture {
	f := &cartFixture{
		repo:  &fakeSaleRepo{},
		snaps: &fakeSnapshots{current: snapshotOf(alfajor, agua, chicle)},
	}
	proc := sales.NewProcessor(f.repo, f.snaps, &fakeInvalidator{}, nil, nil)
	f.uc = sales.NewCartUseCase(memory.NewCartStore(time.Hour), f.snaps, proc, nil)
	return f
}

// Escenario: stock 2, tres agregados → 1, 2, InsufficientStock; el carrito queda en 2.
func TestCartUseCase_TercerAgregadoSinStock(t *testing.T) {
	f := newCartUseCase()
	ctx := context.Background()

	v, err := f.uc.AddProduct(ctx, seller, alfajor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Lines[0].Quantity)
	v, err = f.uc.AddProduct(ctx, seller, alfajor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Lines[0].Quantity)

	_, err = f.uc.AddProduct(ctx, seller, alfajor.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	v, err = f.uc.Get(ctx, seller, nil)
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, 2, v.Lines[0].Quantity)
}

func TestCartUseCase_SinStockYDesconocido(t *testing.T) {
	f := newCartUseCase()
	ctx := context.Background()

	_, err := f.uc.AddProduct(ctx, seller, chicle.ID)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	_, err = f.uc.AddProduct(ctx, seller, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.AddByBarcode(ctx, seller, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCartUseCase_LectorDeCodigos(t *testing.T) {
	f := newCartUseCase()

	v, err := f.uc.AddByBarcode(context.Background(), seller, " 7790002\n")

	require.NoError(t, err)
	assert.Equal(t, "Agua", v.Lines[0].Name)
}

// Escenario: el vuelto es -2 → no se puede cobrar.
func TestCartUseCase_VueltoNegativoDeshabilitaCobro(t *testing.T) {
	f := newCartUseCase()
	ctx := context.Background()
	_, err := f.uc.AddProduct(ctx, seller, alfajor.ID)
	require.NoError(t, err)

	v, err := f.uc.Get(ctx, seller, paid("498"))

	require.NoError(t, err)
	require.NotNil(t, v.Change)
	assert.Equal(t, "-2", v.Change.String())
	assert.False(t, v.CanCheckout)

	v, err = f.uc.Get(ctx, seller, paid("500"))
	require.NoError(t, err)
	assert.True(t, v.CanCheckout)
}

func TestCartUseCase_CambiarCantidadYQuitar(t *testing.T) {
	f := newCartUseCase()
	ctx := context.Background()
	_, err := f.uc.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	v, err := f.uc.ChangeQuantity(ctx, seller, agua.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Lines[0].Quantity)

	_, err = f.uc.ChangeQuantity(ctx, seller, agua.ID, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	v, err = f.uc.RemoveLine(ctx, seller, agua.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
}

func TestCartUseCase_CarritosPorSesion(t *testing.T) {
	f := newCartUseCase()
	ctx := context.Background()
	other := seller
	other.Username = "vendedor2"

	_, err := f.uc.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	v, err := f.uc.Get(ctx, other, nil)
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
}

func TestCartUseCase_DosLoginsDelMismoVendedorNoCompartenCarrito(t *testing.T) {
	f := newCartUseCase()
	ctx := context.Background()
	cajaA := seller
	cajaA.ID = "login-a"
	cajaB := seller
	cajaB.ID = "login-b"
	cajaB.Token = "tok-456"

	_, err := f.uc.AddProduct(ctx, cajaA, agua.ID)
	require.NoError(t, err)
	_, err = f.uc.AddProduct(ctx, cajaB, alfajor.ID)
	require.NoError(t, err)

	_, err = f.uc.Checkout(ctx, cajaB, paid("500"))
	require.NoError(t, err)

	va, err := f.uc.Get(ctx, cajaA, nil)
	require.NoError(t, err)
	require.Len(t, va.Lines, 1)
	assert.Equal(t, "Agua", va.Lines[0].Name)
	vb, err := f.uc.Get(ctx, cajaB, nil)
	require.NoError(t, err)
	assert.Empty(t, vb.Lines)
	require.Len(t, f.repo.intents, 1)
	assert.Equal(t, alfajor.ID, f.repo.intents[0].Lines[0].ProductID)
}

func TestCartUseCase_CobroExitosoVaciaElCarrito(t *testing.T) {
	f := newCartUseCase()
	ctx := context.Background()
	_, err := f.uc.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	res, err := f.uc.Checkout(ctx, seller, paid("2000"))

	require.NoError(t, err)
	require.NotNil(t, res.Change)
	assert.Equal(t, "999.61", res.Change.String())
	v, err := f.uc.Get(ctx, seller, nil)
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
	assert.Equal(t, pos.StateIdle, f.uc.State(seller))
}

func TestCartUseCase_CobroRechazadoConservaElCarrito(t *testing.T) {
	f := newCartUseCase()
	f.repo.submit = func(entity.SaleIntent) (*entity.SaleRecord, error) {
		return nil, fmt.Errorf("%w: Stock insuficiente para Agua", domain.ErrValidationRejected)
	}
	ctx := context.Background()
	_, err := f.uc.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	_, err = f.uc.Checkout(ctx, seller, nil)

	assert.ErrorIs(t, err, domain.ErrValidationRejected)
	v, err := f.uc.Get(ctx, seller, nil)
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, pos.StateIdle, f.uc.State(seller))
}

func TestCartUseCase_MutacionesBloqueadasDuranteElCobro(t *testing.T) {
	f := newCartUseCase()
	entered := make(chan struct{})
	release := make(chan struct{})
	f.repo.submit = func(entity.SaleIntent) (*entity.SaleRecord, error) {
		close(entered)
		<-release
		return &entity.SaleRecord{ID: 9, DateTime: time.Now()}, nil
	}
	ctx := context.Background()
	_, err := f.uc.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var checkoutErr error
	go func() {
		defer wg.Done()
		_, checkoutErr = f.uc.Checkout(ctx, seller, nil)
	}()
	<-entered

	assert.Equal(t, pos.StateSubmitting, f.uc.State(seller))
	_, err = f.uc.AddProduct(ctx, seller, alfajor.ID)
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)
	_, err = f.uc.Checkout(ctx, seller, nil)
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)
	assert.ErrorIs(t, f.uc.Clear(ctx, seller), domain.ErrCheckoutInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, checkoutErr)

	_, err = f.uc.AddProduct(ctx, seller, alfajor.ID)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), f.repo.calls.Load())
}

func TestCartUseCase_CancelarVenta(t *testing.T) {
	f := newCartUseCase()
	ctx := context.Background()
	_, err := f.uc.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	require.NoError(t, f.uc.Clear(ctx, seller))

	v, err := f.uc.Get(ctx, seller, nil)
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
}

func TestCartUseCase_FalloAlVaciarTrasLaVentaNoPermiteCobrarDosVeces(t *testing.T) {
	f := newCartUseCase()
	carts := &flakyCarts{CartRepository: memory.NewCartStore(time.Hour), failDeletes: 10}
	proc := sales.NewProcessor(f.repo, f.snaps, &fakeInvalidator{}, nil, nil)
	uc := sales.NewCartUseCase(carts, f.snaps, proc, nil)
	ctx := context.Background()
	_, err := uc.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	res, err := uc.Checkout(ctx, seller, nil)

	require.NoError(t, err)
	assert.True(t, res.CartClearFailed)
	assert.Equal(t, pos.StateIdle, uc.State(seller))

	v, err := uc.Get(ctx, seller, nil)
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
	_, err = uc.Checkout(ctx, seller, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Equal(t, int32(1), f.repo.calls.Load())
}

func TestCartUseCase_ReintentaVaciarElCarrito(t *testing.T) {
	f := newCartUseCase()
	carts := &flakyCarts{CartRepository: memory.NewCartStore(time.Hour), failDeletes: 1}
	proc := sales.NewProcessor(f.repo, f.snaps, &fakeInvalidator{}, nil, nil)
	uc := sales.NewCartUseCase(carts, f.snaps, proc, nil)
	ctx := context.Background()
	_, err := uc.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	res, err := uc.Checkout(ctx, seller, nil)

	require.NoError(t, err)
	assert.False(t, res.CartClearFailed)
	assert.Equal(t, 2, carts.deletes)
	stored, err := carts.CartRepository.Get(ctx, seller.Key())
	require.NoError(t, err)
	assert.True(t, stored.IsEmpty())
}

// Dos réplicas comparten almacén y marca de cobro: mientras una cobra, la otra no muta ni cobra.
func TestCartUseCase_MarcaDeCobroCompartidaEntreReplicas(t *testing.T) {
	f := newCartUseCase()
	store := memory.NewCartStore(time.Hour)
	lock := newSharedLock()
	entered := make(chan struct{})
	release := make(chan struct{})
	f.repo.submit = func(entity.SaleIntent) (*entity.SaleRecord, error) {
		close(entered)
		<-release
		return &entity.SaleRecord{ID: 9, DateTime: time.Now()}, nil
	}
	proc := sales.NewProcessor(f.repo, f.snaps, &fakeInvalidator{}, nil, nil)
	replicaA := sales.NewCartUseCase(store, f.snaps, proc, nil).WithCheckoutLock(lock)
	replicaB := sales.NewCartUseCase(store, f.snaps, proc, nil).WithCheckoutLock(lock)
	ctx := context.Background()
	_, err := replicaA.AddProduct(ctx, seller, agua.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var checkoutErr error
	go func() {
		defer wg.Done()
		_, checkoutErr = replicaA.Checkout(ctx, seller, nil)
	}()
	<-entered

	_, err = replicaB.AddProduct(ctx, seller, alfajor.ID)
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)
	_, err = replicaB.Checkout(ctx, seller, nil)
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)
	assert.ErrorIs(t, replicaB.Clear(ctx, seller), domain.ErrCheckoutInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, checkoutErr)

	v, err := replicaB.Get(ctx, seller, nil)
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
	_, err = replicaB.AddProduct(ctx, seller, alfajor.ID)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), f.repo.calls.Load())
}
