package auth

import (
	"context"
	"strings"
	"time"
)

// Session contexto de sesión inyectado explícitamente a los componentes que lo necesitan.
// Reemplaza la lectura ambiental del token y del rol guardados en el navegador.
type Session struct {
	ID       string // jti del token o, si no lo trae, hash del token crudo
	Username string
	Roles    []string
	Token    string // token crudo, se reenvía como Bearer al servicio de ventas

	ExpiresAt time.Time
}

// Key clave del carrito y del cobro en curso. Cada login tiene la suya: dos cajas abiertas
// por el mismo vendedor no comparten carrito.
func (s Session) Key() string {
	if s.ID == "" {
		return s.Username
	}
	return s.Username + "#" + s.ID
}

// IsAdmin indica si alguno de los roles contiene "admin" (ROLE_ADMIN, admin...).
func (s Session) IsAdmin() bool {
	return s.HasRole("admin")
}

// HasRole compara sin distinguir mayúsculas y tolera el prefijo ROLE_ de Spring.
func (s Session) HasRole(role string) bool {
	want := strings.ToLower(role)
	for _, r := range s.Roles {
		if strings.Contains(strings.ToLower(r), want) {
			return true
		}
	}
	return false
}

type sessionCtxKey struct{}

// WithSession adjunta la sesión al contexto para que los adaptadores salientes reenvíen el token.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// FromContext devuelve la sesión del contexto, si existe.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(Session)
	return s, ok
}
