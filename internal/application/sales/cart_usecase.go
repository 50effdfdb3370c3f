package sales

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/pos"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
	"github.com/jhoicas/kiosco-pos/pkg/money"
)

// CartUseCase caja registradora: un carrito por sesión, validado contra el snapshot vigente.
type CartUseCase struct {
	carts     repository.CartRepository
	snapshots Snapshots
	processor *Processor
	guard     *sessionGuard
	remote    repository.CheckoutLock // nil: solo la marca en proceso
	log       *logger.Logger
}

// Intentos de vaciar el carrito persistido después de una venta confirmada.
const (
	clearAttempts = 3
	clearBackoff  = 50 * time.Millisecond
)

// NewCartUseCase construye el caso de uso.
func NewCartUseCase(
	carts repository.CartRepository,
	snapshots Snapshots,
	processor *Processor,
	log *logger.Logger,
) *CartUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CartUseCase{
		carts:     carts,
		snapshots: snapshots,
		processor: processor,
		guard:     newSessionGuard(),
		log:       log,
	}
}

// WithCheckoutLock agrega la marca de cobro compartida entre réplicas (carritos en redis).
func (uc *CartUseCase) WithCheckoutLock(lock repository.CheckoutLock) *CartUseCase {
	uc.remote = lock
	return uc
}

// Get devuelve la vista del carrito con el vuelto para amountPaid (puede ser nil).
func (uc *CartUseCase) Get(ctx context.Context, sess auth.Session, amountPaid *decimal.Decimal) (*dto.CartView, error) {
	key := sess.Key()
	st := uc.guard.get(key)
	st.mu.Lock()
	defer st.mu.Unlock()
	cart, err := uc.loadLocked(ctx, st, key)
	if err != nil {
		return nil, err
	}
	return uc.viewLocked(st, cart, amountPaid), nil
}

// AddProduct agrega una unidad del producto (click en la lista de búsqueda).
func (uc *CartUseCase) AddProduct(ctx context.Context, sess auth.Session, productID int64) (*dto.CartView, error) {
	snap, err := uc.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := snap.Product(productID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return uc.add(ctx, sess, p, snap.StockOf(p.ID))
}

// AddByBarcode agrega una unidad del producto escaneado.
func (uc *CartUseCase) AddByBarcode(ctx context.Context, sess auth.Session, barcode string) (*dto.CartView, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidInput
	}
	snap, err := uc.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := snap.ProductByBarcode(barcode)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return uc.add(ctx, sess, p, snap.StockOf(p.ID))
}

func (uc *CartUseCase) add(ctx context.Context, sess auth.Session, p entity.Product, stock int) (*dto.CartView, error) {
	return uc.mutate(ctx, sess, func(cart *pos.Cart) error {
		return cart.AddLine(p, stock)
	})
}

// ChangeQuantity suma delta a la línea. Si supera el stock del snapshot el carrito no cambia
// y devuelve domain.ErrInsufficientStock.
func (uc *CartUseCase) ChangeQuantity(ctx context.Context, sess auth.Session, productID int64, delta int) (*dto.CartView, error) {
	snap, err := uc.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, sess, func(cart *pos.Cart) error {
		return cart.ChangeQuantity(productID, delta, snap.StockOf(productID))
	})
}

// RemoveLine quita la línea del producto.
func (uc *CartUseCase) RemoveLine(ctx context.Context, sess auth.Session, productID int64) (*dto.CartView, error) {
	return uc.mutate(ctx, sess, func(cart *pos.Cart) error {
		cart.RemoveLine(productID)
		return nil
	})
}

// Clear cancela la venta en curso.
func (uc *CartUseCase) Clear(ctx context.Context, sess auth.Session) error {
	key := sess.Key()
	st, err := uc.guard.lock(key)
	if err != nil {
		return err
	}
	defer st.mu.Unlock()
	if err := uc.checkRemote(ctx, key); err != nil {
		return err
	}
	if err := uc.carts.Delete(ctx, key); err != nil {
		return err
	}
	st.pendingClear = false
	return nil
}

// mutate aplica fn sobre el carrito de la sesión y lo persiste si no hubo error.
// Un error de fn deja el carrito persistido sin cambios.
func (uc *CartUseCase) mutate(ctx context.Context, sess auth.Session, fn func(*pos.Cart) error) (*dto.CartView, error) {
	key := sess.Key()
	st, err := uc.guard.lock(key)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()
	if err := uc.checkRemote(ctx, key); err != nil {
		return nil, err
	}

	cart, err := uc.loadLocked(ctx, st, key)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := uc.carts.Save(ctx, key, cart); err != nil {
		return nil, err
	}
	st.pendingClear = false
	return uc.viewLocked(st, cart, nil), nil
}

// Checkout cobra el carrito de la sesión.
//
// La solicitud al servicio de ventas no se cancela si el cliente HTTP se desconecta: una venta
// enviada termina y su resultado queda reflejado en el carrito persistido.
func (uc *CartUseCase) Checkout(ctx context.Context, sess auth.Session, amountPaid *decimal.Decimal) (*dto.CheckoutResponse, error) {
	key := sess.Key()
	ctx = context.WithoutCancel(auth.WithSession(ctx, sess))

	st, err := uc.guard.lock(key)
	if err != nil {
		return nil, err
	}
	release, err := uc.acquireRemote(ctx, key)
	if err != nil {
		st.mu.Unlock()
		return nil, err
	}
	cart, err := uc.loadLocked(ctx, st, key)
	if err != nil {
		uc.releaseRemote(ctx, key, release)
		st.mu.Unlock()
		return nil, err
	}
	st.transition(pos.StateSubmitting)
	st.mu.Unlock()

	res, err := uc.processor.Checkout(ctx, cart, amountPaid)

	st.mu.Lock()
	defer st.mu.Unlock()
	defer uc.releaseRemote(ctx, key, release)
	if err != nil {
		st.transition(pos.StateRejected)
		st.transition(pos.StateIdle)
		return nil, err
	}
	st.transition(pos.StateCommitted)
	cleared := uc.clearCommitted(ctx, st, key, res.Reference.String())
	st.transition(pos.StateIdle)

	out := toCheckoutResponse(res)
	out.CartClearFailed = !cleared
	return out, nil
}

// clearCommitted vacía el carrito de una venta ya confirmada. Si el almacén no responde tras
// varios intentos la sesión queda marcada: la próxima lectura descarta el carrito persistido
// en lugar de ofrecerlo para un segundo cobro. Requiere st.mu tomado.
func (uc *CartUseCase) clearCommitted(ctx context.Context, st *sessionState, key, ref string) bool {
	var err error
	for attempt := 1; attempt <= clearAttempts; attempt++ {
		if err = uc.carts.Delete(ctx, key); err == nil {
			st.pendingClear = false
			return true
		}
		if attempt < clearAttempts {
			time.Sleep(clearBackoff * time.Duration(attempt))
		}
	}
	st.pendingClear = true
	uc.log.Error().Err(err).Str("checkout_ref", ref).Int("attempts", clearAttempts).Msg("venta confirmada pero no se pudo vaciar el carrito persistido")
	return false
}

// loadLocked lee el carrito de la sesión. Un carrito de una venta ya confirmada que no se pudo
// borrar se reintenta borrar y, si sigue fallando, se trata como vacío. Requiere st.mu tomado.
func (uc *CartUseCase) loadLocked(ctx context.Context, st *sessionState, key string) (*pos.Cart, error) {
	if st.pendingClear {
		if err := uc.carts.Delete(ctx, key); err != nil {
			uc.log.Warn().Err(err).Msg("carrito de venta confirmada sigue persistido; se descarta")
			return pos.NewCart(), nil
		}
		st.pendingClear = false
	}
	return uc.carts.Get(ctx, key)
}

func (uc *CartUseCase) checkRemote(ctx context.Context, key string) error {
	if uc.remote == nil {
		return nil
	}
	held, err := uc.remote.Held(ctx, key)
	if err != nil {
		return err
	}
	if held {
		return domain.ErrCheckoutInProgress
	}
	return nil
}

func (uc *CartUseCase) acquireRemote(ctx context.Context, key string) (func(context.Context) error, error) {
	if uc.remote == nil {
		return nil, nil
	}
	return uc.remote.Acquire(ctx, key)
}

func (uc *CartUseCase) releaseRemote(ctx context.Context, key string, release func(context.Context) error) {
	if release == nil {
		return
	}
	if err := release(ctx); err != nil {
		uc.log.Warn().Err(err).Str("session", key).Msg("no se pudo soltar la marca de cobro; vence por TTL")
	}
}

// State estado de cobro de la sesión.
func (uc *CartUseCase) State(sess auth.Session) pos.CheckoutState {
	return uc.guard.State(sess.Key())
}

func (uc *CartUseCase) viewLocked(st *sessionState, cart *pos.Cart, amountPaid *decimal.Decimal) *dto.CartView {
	return buildView(cart, amountPaid, st.state)
}

func buildView(cart *pos.Cart, amountPaid *decimal.Decimal, state pos.CheckoutState) *dto.CartView {
	total := cart.Total()
	v := &dto.CartView{
		Lines:       make([]dto.CartLineDTO, 0, cart.Len()),
		Total:       total,
		TotalLabel:  money.Format(total),
		CanCheckout: cart.CanCheckout(amountPaid) && state.AcceptsMutations(),
		State:       string(state),
	}
	for _, l := range cart.Lines() {
		v.Lines = append(v.Lines, dto.CartLineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}
	if pos.PaymentInformed(amountPaid) {
		paid := *amountPaid
		change := cart.Change(paid)
		v.AmountPaid = &paid
		v.Change = &change
	}
	return v
}

func toCheckoutResponse(res *CheckoutResult) *dto.CheckoutResponse {
	out := &dto.CheckoutResponse{
		Reference:      res.Reference.String(),
		Sale:           ToSaleDTO(*res.Sale),
		Change:         res.Change,
		LowStockAlerts: make([]dto.LowStockNotificationDTO, 0, len(res.Notifications)),
		RefreshFailed:  res.RefreshFailed,
	}
	if res.Change != nil {
		out.ChangeLabel = money.Format(*res.Change)
	}
	for _, n := range res.Notifications {
		out.LowStockAlerts = append(out.LowStockAlerts, dto.LowStockNotificationDTO{
			ProductID:     n.ProductID,
			Name:          n.Name,
			StockQuantity: n.StockQuantity,
			Title:         n.Title,
			Message:       n.Message,
		})
	}
	return out
}
