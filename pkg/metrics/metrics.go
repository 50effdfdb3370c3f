// Package metrics expone los colectores Prometheus de la caja.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados de un cobro.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeRefused   = "refused" // guarda local, no salió a la red
)

var (
	// Registry contiene los colectores propios de la aplicación.
	Registry = prometheus.NewRegistry()

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kiosco_pos",
			Subsystem: "checkout",
			Name:      "total",
			Help:      "Cobros procesados por resultado y motivo.",
		},
		[]string{"outcome", "reason"},
	)

	checkoutDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kiosco_pos",
			Subsystem: "checkout",
			Name:      "duration_seconds",
			Help:      "Duración del envío de la venta al servicio autoritativo.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms a ~5s
		},
		[]string{"outcome"},
	)

	snapshotRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kiosco_pos",
			Subsystem: "inventory",
			Name:      "snapshot_refresh_total",
			Help:      "Consultas del inventario completo por resultado.",
		},
		[]string{"result"},
	)

	lowStockProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kiosco_pos",
			Subsystem: "inventory",
			Name:      "low_stock_products",
			Help:      "Productos con stock por debajo del umbral de reposición en el último snapshot.",
		},
	)

	lowStockAlert = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kiosco_pos",
			Subsystem: "inventory",
			Name:      "low_stock_alert",
			Help:      "1 si el vigilante detectó al menos un producto con stock bajo.",
		},
	)
)

func init() {
	Registry.MustRegister(
		checkouts,
		checkoutDuration,
		snapshotRefreshes,
		lowStockProducts,
		lowStockAlert,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler devuelve el handler HTTP con las métricas registradas.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveCheckout registra un cobro. d se ignora para los rechazos locales.
func ObserveCheckout(outcome, reason string, d time.Duration) {
	checkouts.WithLabelValues(outcome, reason).Inc()
	if outcome != OutcomeRefused {
		checkoutDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// ObserveSnapshotRefresh registra una consulta del inventario.
func ObserveSnapshotRefresh(err error, lowStock int) {
	if err != nil {
		snapshotRefreshes.WithLabelValues("error").Inc()
		return
	}
	snapshotRefreshes.WithLabelValues("ok").Inc()
	lowStockProducts.Set(float64(lowStock))
}

// SetLowStockAlert publica la señal del vigilante.
func SetLowStockAlert(on bool) {
	if on {
		lowStockAlert.Set(1)
		return
	}
	lowStockAlert.Set(0)
}
