package sales

import (
	"context"

	"github.com/jhoicas/kiosco-pos/pkg/logger"
)

// LogNotifier registra cada aviso de stock bajo en el log estructurado. Los avisos también
// viajan en la respuesta del cobro para que la caja los muestre.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log}
}

// NotifyLowStock emite un evento por producto.
func (n *LogNotifier) NotifyLowStock(_ context.Context, ref string, alerts []LowStockNotification) {
	for _, a := range alerts {
		n.log.Warn().
			Str("checkout_ref", ref).
			Int64("product_id", a.ProductID).
			Int("stock", a.StockQuantity).
			Msg(a.Title + ". " + a.Message)
	}
}
