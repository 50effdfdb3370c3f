package repository

import (
	"context"

	"github.com/jhoicas/kiosco-pos/internal/domain/pos"
)

// CartRepository persiste el carrito de cada sesión de caja. Un carrito pertenece a una
// única sesión y nunca se comparte.
type CartRepository interface {
	// Get devuelve el carrito de la sesión; un carrito vacío si no existe.
	Get(ctx context.Context, sessionKey string) (*pos.Cart, error)
	Save(ctx context.Context, sessionKey string, cart *pos.Cart) error
	Delete(ctx context.Context, sessionKey string) error
}

// CheckoutLock marca el cobro en vuelo de una sesión de forma visible para todas las réplicas
// que comparten el almacén de carritos.
type CheckoutLock interface {
	// Acquire toma la marca. Devuelve domain.ErrCheckoutInProgress si otra réplica la tiene.
	// release la suelta solo si sigue siendo propia.
	Acquire(ctx context.Context, sessionKey string) (release func(context.Context) error, err error)
	// Held indica si hay un cobro en vuelo para la sesión.
	Held(ctx context.Context, sessionKey string) (bool, error)
}
