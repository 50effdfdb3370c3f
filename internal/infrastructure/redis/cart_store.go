// Package redis persiste los carritos de las cajas en Redis para compartirlos entre réplicas
// y sobrevivir reinicios.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/kiosco-pos/internal/domain/pos"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
)

var _ repository.CartRepository = (*CartStore)(nil)

type storedCart struct {
	Lines     []pos.CartLine `json:"lines"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CartStore implementa repository.CartRepository sobre Redis. Cada carrito es una clave
// "cart:{sesión}" con TTL renovado en cada escritura.
type CartStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewCartStore construye el almacén. ttl <= 0 guarda sin vencimiento.
func NewCartStore(client *goredis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// Get devuelve el carrito de la sesión; uno vacío si no existe.
func (s *CartStore) Get(ctx context.Context, sessionKey string) (*pos.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(sessionKey)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return pos.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: leer carrito: %w", err)
	}
	var stored storedCart
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("redis: decodificar carrito: %w", err)
	}
	return pos.RestoreCart(stored.Lines), nil
}

// Save guarda el carrito. Un carrito vacío borra la clave.
func (s *CartStore) Save(ctx context.Context, sessionKey string, cart *pos.Cart) error {
	if cart.IsEmpty() {
		return s.Delete(ctx, sessionKey)
	}
	data, err := json.Marshal(storedCart{Lines: cart.Lines(), UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("redis: serializar carrito: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(sessionKey), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: guardar carrito: %w", err)
	}
	return nil
}

// Delete elimina el carrito de la sesión.
func (s *CartStore) Delete(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, cartKey(sessionKey)).Err(); err != nil {
		return fmt.Errorf("redis: borrar carrito: %w", err)
	}
	return nil
}

// Ping verifica la conexión (health check).
func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func cartKey(sessionKey string) string {
	return "cart:" + sessionKey
}
