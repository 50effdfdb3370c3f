package sales

import (
	"context"

	"github.com/jhoicas/kiosco-pos/internal/application/auth"
	"github.com/jhoicas/kiosco-pos/internal/domain/inventory"
)

// SessionInvalidator marca una sesión como expirada cuando el servicio de ventas responde
// "no autenticado". La caja debe volver a iniciar sesión.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, s auth.Session)
}

// Notifier entrega los avisos de stock bajo posteriores a una venta.
type Notifier interface {
	NotifyLowStock(ctx context.Context, ref string, alerts []LowStockNotification)
}

// Snapshots acceso al snapshot de inventario compartido.
type Snapshots interface {
	Current(ctx context.Context) (*inventory.Snapshot, error)
	RefreshAfterCommit(ctx context.Context) (*inventory.Snapshot, error)
}
