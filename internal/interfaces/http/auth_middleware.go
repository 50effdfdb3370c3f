package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	"github.com/jhoicas/kiosco-pos/internal/application/dto"
)

// LocalSession clave de Locals con la auth.Session de la petición.
const LocalSession = "session"

// SessionAuthenticator valida el token y construye la sesión. Lo implementa *auth.SessionUseCase.
type SessionAuthenticator interface {
	Authenticate(token string) (auth.Session, error)
}

// AuthMiddleware valida el Bearer Token JWT y deja la sesión en c.Locals y en el contexto
// de la petición (para que los adaptadores reenvíen el token).
func AuthMiddleware(sessions SessionAuthenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		sess, err := sessions.Authenticate(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "SESSION_EXPIRED", Message: "sesión expirada, inicie sesión nuevamente"})
		}
		c.Locals(LocalSession, sess)
		c.SetUserContext(auth.WithSession(c.UserContext(), sess))
		return c.Next()
	}
}

// RequireRole permite el paso solo si la sesión tiene alguno de los roles indicados.
// Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := GetSession(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión no encontrada"})
		}
		if len(sess.Roles) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye roles"})
		}
		for _, r := range roles {
			if sess.HasRole(r) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "permisos insuficientes"})
	}
}

// GetSession devuelve la sesión de la petición (después del middleware de auth).
func GetSession(c *fiber.Ctx) (auth.Session, bool) {
	s, ok := c.Locals(LocalSession).(auth.Session)
	return s, ok
}

// GetRole devuelve el primer rol de la sesión, o "" si no hay.
func GetRole(c *fiber.Ctx) string {
	s, ok := GetSession(c)
	if !ok || len(s.Roles) == 0 {
		return ""
	}
	return s.Roles[0]
}
