package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/kiosco-pos/internal/domain"
)

// isConnectionError indica fallas de conexión (clase 08) o de red antes de llegar al servidor.
func isConnectionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr) || pgconn.SafeToRetry(err)
}

// wrapQueryError envuelve el error de la consulta; las fallas de conexión se reportan como
// domain.ErrNetworkFailure para que la caja las trate igual que un servicio caído.
func wrapQueryError(op string, err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrNetworkFailure, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
