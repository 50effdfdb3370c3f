package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/kiosco-pos/pkg/logger"
	"github.com/jhoicas/kiosco-pos/pkg/metrics"
)

// DefaultWatchInterval período por defecto del vigilante.
const DefaultWatchInterval = 30 * time.Second

// StockStatus estado publicado por el vigilante para el indicador de la interfaz.
type StockStatus struct {
	LowStock  bool      // al menos un producto con stock < 5
	CheckedAt time.Time // última consulta exitosa; cero si nunca consultó
	LastError string    // error de la última consulta, vacío si fue exitosa
}

// StockWatcher consulta periódicamente el inventario y lo reduce a un único booleano
// "hay stock bajo". Solo alimenta un indicador: no participa del carrito ni del cobro y
// nunca los bloquea (no comparte locks con ellos).
//
// Su vida está atada a Start/Stop (o al ctx recibido en Start); no queda trabajo corriendo
// después de Stop.
type StockWatcher struct {
	snapshots *SnapshotService
	interval  time.Duration
	log       *logger.Logger

	status atomic.Pointer[StockStatus]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStockWatcher construye el vigilante. interval <= 0 usa DefaultWatchInterval.
func NewStockWatcher(snapshots *SnapshotService, interval time.Duration, log *logger.Logger) *StockWatcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	w := &StockWatcher{snapshots: snapshots, interval: interval, log: log}
	w.status.Store(&StockStatus{})
	return w
}

// Start lanza el ciclo en una goroutine. Consulta una vez al arrancar y luego cada interval.
// Llamar Start con el vigilante ya corriendo no hace nada.
func (w *StockWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
	w.log.Info().Dur("interval", w.interval).Msg("vigilante de stock iniciado")
}

// Stop detiene el ciclo y espera a que la goroutine termine.
func (w *StockWatcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.log.Info().Msg("vigilante de stock detenido")
}

// LowStock devuelve la última señal calculada.
func (w *StockWatcher) LowStock() bool {
	return w.status.Load().LowStock
}

// Status devuelve una copia del último estado.
func (w *StockWatcher) Status() StockStatus {
	return *w.status.Load()
}

func (w *StockWatcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)
	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// check consulta el inventario. Si falla conserva la señal anterior y registra el error.
func (w *StockWatcher) check(ctx context.Context) {
	snap, err := w.snapshots.Refresh(ctx)
	prev := w.status.Load()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Warn().Err(err).Msg("vigilante: no se pudo consultar el inventario")
		next := *prev
		next.LastError = err.Error()
		w.status.Store(&next)
		return
	}
	low := snap.AnyLowStock()
	if low != prev.LowStock {
		w.log.Info().Bool("low_stock", low).Msg("vigilante: cambió la señal de stock bajo")
	}
	w.status.Store(&StockStatus{LowStock: low, CheckedAt: snap.FetchedAt()})
	metrics.SetLowStockAlert(low)
}
