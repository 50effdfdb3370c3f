// Package memory implementa los repositorios en memoria del proceso (una sola instancia).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/kiosco-pos/internal/domain/pos"
)

type cartEntry struct {
	lines     []pos.CartLine
	expiresAt time.Time
}

// CartStore implementa repository.CartRepository en memoria con vencimiento por inactividad.
type CartStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	carts map[string]cartEntry
}

// NewCartStore crea el almacén. ttl <= 0 desactiva el vencimiento.
func NewCartStore(ttl time.Duration) *CartStore {
	return &CartStore{ttl: ttl, now: time.Now, carts: make(map[string]cartEntry)}
}

// Get devuelve una copia del carrito; uno vacío si no existe o venció.
func (s *CartStore) Get(_ context.Context, key string) (*pos.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[key]
	if !ok {
		return pos.NewCart(), nil
	}
	if s.ttl > 0 && s.now().After(e.expiresAt) {
		delete(s.carts, key)
		return pos.NewCart(), nil
	}
	return pos.RestoreCart(e.lines), nil
}

// Save guarda una copia de las líneas y renueva el vencimiento.
func (s *CartStore) Save(_ context.Context, key string, cart *pos.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart.IsEmpty() {
		delete(s.carts, key)
		return nil
	}
	s.carts[key] = cartEntry{lines: cart.Lines(), expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Delete elimina el carrito. No falla si no existe.
func (s *CartStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}
