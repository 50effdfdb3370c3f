package sales

import (
	"sync"

	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/pos"
)

// sessionGuard serializa las operaciones de cada caja y lleva su estado de cobro.
// Las mutaciones y un segundo cobro se rechazan mientras hay un cobro en vuelo.
type sessionGuard struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	mu    sync.Mutex // serializa lectura-modificación-escritura del carrito
	state pos.CheckoutState

	// pendingClear: venta confirmada cuyo carrito persistido no se pudo borrar.
	pendingClear bool
}

func newSessionGuard() *sessionGuard {
	return &sessionGuard{sessions: make(map[string]*sessionState)}
}

func (g *sessionGuard) get(key string) *sessionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[key]
	if !ok {
		s = &sessionState{state: pos.StateIdle}
		g.sessions[key] = s
	}
	return s
}

// lock toma la sesión para una mutación. Falla con ErrCheckoutInProgress si está cobrando.
func (g *sessionGuard) lock(key string) (*sessionState, error) {
	s := g.get(key)
	s.mu.Lock()
	if !s.state.AcceptsMutations() {
		s.mu.Unlock()
		return nil, domain.ErrCheckoutInProgress
	}
	return s, nil
}

// transition aplica un cambio de estado válido. Requiere s.mu tomado.
func (s *sessionState) transition(to pos.CheckoutState) {
	if s.state.CanTransition(to) {
		s.state = to
	}
}

// State devuelve el estado actual.
func (g *sessionGuard) State(key string) pos.CheckoutState {
	s := g.get(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
