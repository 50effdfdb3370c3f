package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jhoicas/kiosco-pos/internal/domain"
	"github.com/jhoicas/kiosco-pos/pkg/jwt"
)

// SessionUseCase autentica los tokens del kiosco y recuerda las sesiones invalidadas.
//
// El login vive en el backend del kiosco; aquí solo se valida el Bearer Token recibido y se
// marca como inválido cuando el servicio de ventas responde "no autenticado", para que las
// siguientes peticiones de esa caja obliguen a volver a iniciar sesión.
type SessionUseCase struct {
	secret string
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // hash del token → vencimiento
}

// NewSessionUseCase construye el caso de uso con el secreto compartido con el backend.
func NewSessionUseCase(secret string) *SessionUseCase {
	return &SessionUseCase{
		secret:  secret,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Authenticate valida el token y construye la sesión.
// Devuelve domain.ErrUnauthenticated si el token es inválido, expiró o fue invalidado.
func (uc *SessionUseCase) Authenticate(token string) (Session, error) {
	claims, err := jwt.Parse(uc.secret, token)
	if err != nil {
		return Session{}, domain.ErrUnauthenticated
	}
	if uc.isRevoked(token) {
		return Session{}, domain.ErrUnauthenticated
	}
	if claims.Username == "" {
		return Session{}, domain.ErrUnauthenticated
	}
	id := claims.ID
	if id == "" {
		id = tokenKey(token)[:sessionIDLen]
	}
	return Session{
		ID:        id,
		Username:  claims.Username,
		Roles:     claims.Roles,
		Token:     token,
		ExpiresAt: claims.Expiry(),
	}, nil
}

// Invalidate marca la sesión como expirada. Implementa sales.SessionInvalidator.
func (uc *SessionUseCase) Invalidate(_ context.Context, s Session) {
	if s.Token == "" {
		return
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	exp := s.ExpiresAt
	if exp.IsZero() {
		exp = uc.now().Add(24 * time.Hour)
	}
	uc.revoked[tokenKey(s.Token)] = exp
	uc.purgeLocked()
}

func (uc *SessionUseCase) isRevoked(token string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	_, ok := uc.revoked[tokenKey(token)]
	return ok
}

// purgeLocked descarta las entradas cuyo token ya venció por sí mismo.
func (uc *SessionUseCase) purgeLocked() {
	now := uc.now()
	for k, exp := range uc.revoked {
		if now.After(exp) {
			delete(uc.revoked, k)
		}
	}
}

const sessionIDLen = 16

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
