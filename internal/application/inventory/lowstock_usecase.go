package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/kiosco-pos/internal/application/analytics"
	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/pkg/logger"
)

// LowStockUseCase genera la lista de reposición: productos bajo el umbral, del más urgente al
// menos urgente, enriquecidos con las unidades vendidas en todo el historial.
type LowStockUseCase struct {
	snapshots *SnapshotService
	sales     repository.SaleRepository
	watcher   *StockWatcher
	log       *logger.Logger
}

// NewLowStockUseCase construye el caso de uso. watcher puede ser nil.
func NewLowStockUseCase(
	snapshots *SnapshotService,
	sales repository.SaleRepository,
	watcher *StockWatcher,
	log *logger.Logger,
) *LowStockUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LowStockUseCase{snapshots: snapshots, sales: sales, watcher: watcher, log: log}
}

// List devuelve los productos con stock < 5 del snapshot vigente. Priority 1 = más urgente.
// Si el historial de ventas no está disponible, UnitsSold queda en 0.
func (uc *LowStockUseCase) List(ctx context.Context) ([]dto.LowStockItemDTO, error) {
	snap, err := uc.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	entries := analytics.LowStock(snap.Products())
	if len(entries) == 0 {
		return []dto.LowStockItemDTO{}, nil
	}

	var sold map[int64]int
	if sales, err := uc.sales.List(ctx); err != nil {
		uc.log.Warn().Err(err).Msg("stock bajo: historial de ventas no disponible")
	} else {
		sold = analytics.UnitsSoldByProduct(sales)
	}

	out := make([]dto.LowStockItemDTO, 0, len(entries))
	for i, e := range entries {
		out = append(out, analytics.LowStockItem(e, i+1, sold[e.Product.ID]))
	}
	return out, nil
}

// Alert devuelve el indicador del vigilante. Sin vigilante corriendo, lo calcula del snapshot
// vigente sin consultar.
func (uc *LowStockUseCase) Alert() dto.StockAlertDTO {
	if uc.watcher != nil {
		st := uc.watcher.Status()
		out := dto.StockAlertDTO{LowStock: st.LowStock, LastError: st.LastError}
		if !st.CheckedAt.IsZero() {
			checked := st.CheckedAt
			out.CheckedAt = &checked
		}
		return out
	}
	snap := uc.snapshots.Peek()
	if snap == nil {
		return dto.StockAlertDTO{}
	}
	checked := snap.FetchedAt()
	return dto.StockAlertDTO{LowStock: snap.AnyLowStock(), CheckedAt: &checked}
}

// Refresh fuerza una consulta del inventario (operación de administrador).
func (uc *LowStockUseCase) Refresh(ctx context.Context) (*dto.RefreshResponse, error) {
	snap, err := uc.snapshots.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{
		ProductCount:  snap.Len(),
		LowStockCount: countLowStock(snap),
		FetchedAt:     snap.FetchedAt().Truncate(time.Millisecond),
	}, nil
}
