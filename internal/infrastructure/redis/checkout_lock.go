package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
)

var _ repository.CheckoutLock = (*CheckoutLock)(nil)

// releaseScript borra la marca solo si el valor sigue siendo el del dueño: una marca vencida
// y tomada por otra réplica no se suelta por error.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CheckoutLock implementa repository.CheckoutLock con SET NX sobre "cart:{sesión}:submitting".
// El TTL libera la marca si la réplica que cobraba se cae a mitad del envío.
type CheckoutLock struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewCheckoutLock construye la marca distribuida. ttl <= 0 usa cinco minutos.
func NewCheckoutLock(client *goredis.Client, ttl time.Duration) *CheckoutLock {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CheckoutLock{client: client, ttl: ttl}
}

// Acquire toma la marca de cobro de la sesión.
func (l *CheckoutLock) Acquire(ctx context.Context, sessionKey string) (func(context.Context) error, error) {
	key := submittingKey(sessionKey)
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, owner, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: tomar marca de cobro: %w", err)
	}
	if !ok {
		return nil, domain.ErrCheckoutInProgress
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, owner).Err(); err != nil {
			return fmt.Errorf("redis: soltar marca de cobro: %w", err)
		}
		return nil
	}, nil
}

// Held indica si alguna réplica está cobrando el carrito de la sesión.
func (l *CheckoutLock) Held(ctx context.Context, sessionKey string) (bool, error) {
	n, err := l.client.Exists(ctx, submittingKey(sessionKey)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: consultar marca de cobro: %w", err)
	}
	return n > 0, nil
}

func submittingKey(sessionKey string) string {
	return cartKey(sessionKey) + ":submitting"
}
