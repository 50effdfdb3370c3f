// Package sales contiene el procesador de cobro y el caso de uso de la caja registradora.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/inventory"
	"github.com/jhoicas/kiosco-pos/internal/domain/pos"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
	"github.com/jhoicas/kiosco-pos/pkg/metrics"
	"github.com/jhoicas/kiosco-pos/pkg/money"
)

// LowStockNotification aviso de stock bajo de un producto, uno por producto.
type LowStockNotification struct {
	ProductID     int64
	Name          string
	StockQuantity int
	Title         string // "Stock bajo: {nombre}"
	Message       string // "Quedan solo {n} unidades."
}

// CheckoutResult resultado de una venta confirmada.
type CheckoutResult struct {
	Reference     uuid.UUID
	Sale          *entity.SaleRecord
	Total         decimal.Decimal  // total del carrito enviado
	Change        *decimal.Decimal // nil si no se informó el pago
	Notifications []LowStockNotification
	// RefreshFailed la venta se confirmó pero el inventario no pudo volver a consultarse;
	// las notificaciones pueden faltar y el snapshot sigue siendo el anterior.
	RefreshFailed bool
}

// Processor envía el carrito al servicio de ventas y resuelve las consecuencias:
// vaciar el carrito, refrescar el inventario y avisar stock bajo.
type Processor struct {
	sales       repository.SaleRepository
	snapshots   Snapshots
	invalidator SessionInvalidator
	notifier    Notifier
	log         *logger.Logger
	now         func() time.Time
}

// NewProcessor construye el procesador. invalidator y notifier pueden ser nil.
func NewProcessor(
	sales repository.SaleRepository,
	snapshots Snapshots,
	invalidator SessionInvalidator,
	notifier Notifier,
	log *logger.Logger,
) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		sales:       sales,
		snapshots:   snapshots,
		invalidator: invalidator,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// Checkout cobra el carrito. La sesión viaja en ctx (auth.WithSession).
//
//   - carrito vacío: domain.ErrEmptyCart, sin red.
//   - pago informado menor al total: domain.ErrInsufficientPayment, sin red ni cambios.
//   - éxito: el carrito queda vacío, se refresca el snapshot y se avisa cada producto con
//     stock bajo.
//   - cualquier rechazo: el carrito queda intacto. Con domain.ErrUnauthenticated además se
//     invalida la sesión.
func (p *Processor) Checkout(ctx context.Context, cart *pos.Cart, amountPaid *decimal.Decimal) (*CheckoutResult, error) {
	if cart.IsEmpty() {
		metrics.ObserveCheckout(metrics.OutcomeRefused, "empty_cart", 0)
		return nil, domain.ErrEmptyCart
	}
	total := cart.Total()
	if pos.PaymentInformed(amountPaid) && amountPaid.LessThan(total) {
		metrics.ObserveCheckout(metrics.OutcomeRefused, "insufficient_payment", 0)
		return nil, fmt.Errorf("%w: faltan %s", domain.ErrInsufficientPayment, money.Format(total.Sub(*amountPaid)))
	}

	ref := uuid.New()
	log := p.log.With().Str("checkout_ref", ref.String()).Int("lines", cart.Len()).Logger()
	sess, _ := auth.FromContext(ctx)

	start := p.now()
	rec, err := p.sales.Submit(ctx, cart.Intent())
	elapsed := p.now().Sub(start)
	if err != nil {
		reason := rejectReason(err)
		metrics.ObserveCheckout(metrics.OutcomeRejected, reason, elapsed)
		log.Warn().Err(err).Str("reason", reason).Str("seller", sess.Username).Msg("cobro rechazado")
		if errors.Is(err, domain.ErrUnauthenticated) && p.invalidator != nil && sess.Token != "" {
			p.invalidator.Invalidate(ctx, sess)
		}
		return nil, err
	}
	metrics.ObserveCheckout(metrics.OutcomeCommitted, "", elapsed)

	cart.Clear()
	res := &CheckoutResult{Reference: ref, Sale: rec, Total: total}
	if pos.PaymentInformed(amountPaid) {
		change := amountPaid.Sub(total)
		res.Change = &change
	}
	log.Info().Int64("sale_id", rec.ID).Str("total", rec.TotalAmount.String()).Str("seller", sess.Username).Msg("venta confirmada")

	snap, err := p.snapshots.RefreshAfterCommit(ctx)
	if err != nil {
		res.RefreshFailed = true
		log.Error().Err(err).Msg("venta confirmada pero no se pudo refrescar el inventario")
		return res, nil
	}
	res.Notifications = LowStockNotifications(snap)
	if len(res.Notifications) > 0 && p.notifier != nil {
		p.notifier.NotifyLowStock(ctx, ref.String(), res.Notifications)
	}
	return res, nil
}

// LowStockNotifications arma un aviso por cada producto del snapshot bajo el umbral.
func LowStockNotifications(snap *inventory.Snapshot) []LowStockNotification {
	out := make([]LowStockNotification, 0)
	for _, p := range snap.Products() {
		if !inventory.IsLowStock(p.StockQuantity) {
			continue
		}
		out = append(out, LowStockNotification{
			ProductID:     p.ID,
			Name:          p.Name,
			StockQuantity: p.StockQuantity,
			Title:         "Stock bajo: " + p.Name,
			Message:       "Quedan solo " + money.Units(p.StockQuantity) + " unidades.",
		})
	}
	return out
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrValidationRejected):
		return "validation"
	case errors.Is(err, domain.ErrNetworkFailure):
		return "network"
	default:
		return "unknown"
	}
}
