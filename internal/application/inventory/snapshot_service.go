package inventory

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/kiosco-pos/internal/domain/inventory"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/pkg/metrics"
)

const refreshKey = "snapshot"

// versionedSnapshot asocia el snapshot con el número de la consulta que lo originó.
type versionedSnapshot struct {
	seq  uint64
	snap *inventory.Snapshot
}

// SnapshotService mantiene el snapshot de inventario compartido (solo lectura) por el carrito,
// el procesador de cobro y el vigilante de stock.
//
// Solo Refresh reemplaza el snapshot, y siempre completo. Las consultas simultáneas se
// agrupan con singleflight; RefreshAfterCommit fuerza una consulta nueva para no reutilizar
// una respuesta iniciada antes de la venta. Una respuesta vieja que llega tarde nunca pisa
// a una más nueva.
type SnapshotService struct {
	products repository.ProductRepository
	now      func() time.Time

	seq     atomic.Uint64
	current atomic.Pointer[versionedSnapshot]
	group   singleflight.Group
}

// NewSnapshotService construye el servicio.
func NewSnapshotService(products repository.ProductRepository) *SnapshotService {
	return &SnapshotService{products: products, now: time.Now}
}

// Current devuelve el snapshot vigente; si aún no hay uno, lo consulta.
func (s *SnapshotService) Current(ctx context.Context) (*inventory.Snapshot, error) {
	if v := s.current.Load(); v != nil {
		return v.snap, nil
	}
	return s.Refresh(ctx)
}

// Peek devuelve el snapshot vigente sin consultar; nil si nunca se cargó.
func (s *SnapshotService) Peek() *inventory.Snapshot {
	if v := s.current.Load(); v != nil {
		return v.snap
	}
	return nil
}

// Refresh vuelve a consultar el inventario completo (o se suma a una consulta en curso).
// La consulta compartida no depende de la cancelación de quien la inició: los demás que se
// sumaron siguen esperando su resultado.
func (s *SnapshotService) Refresh(ctx context.Context) (*inventory.Snapshot, error) {
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(refreshKey, func() (interface{}, error) {
		return s.fetch(fetchCtx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*inventory.Snapshot), nil
}

// RefreshAfterCommit consulta el inventario después de una venta confirmada. No se suma a
// consultas iniciadas antes: el stock cambió y se necesita una lectura posterior al commit.
func (s *SnapshotService) RefreshAfterCommit(ctx context.Context) (*inventory.Snapshot, error) {
	s.group.Forget(refreshKey)
	return s.Refresh(ctx)
}

func (s *SnapshotService) fetch(ctx context.Context) (*inventory.Snapshot, error) {
	seq := s.seq.Add(1)
	products, err := s.products.List(ctx)
	if err != nil {
		metrics.ObserveSnapshotRefresh(err, 0)
		return nil, fmt.Errorf("inventario: consultar catálogo: %w", err)
	}
	snap := inventory.NewSnapshot(products, s.now())
	s.store(&versionedSnapshot{seq: seq, snap: snap})
	metrics.ObserveSnapshotRefresh(nil, countLowStock(snap))
	return snap, nil
}

func (s *SnapshotService) store(next *versionedSnapshot) {
	for {
		cur := s.current.Load()
		if cur != nil && cur.seq > next.seq {
			return
		}
		if s.current.CompareAndSwap(cur, next) {
			return
		}
	}
}

func countLowStock(snap *inventory.Snapshot) int {
	n := 0
	for _, p := range snap.Products() {
		if inventory.IsLowStock(p.StockQuantity) {
			n++
		}
	}
	return n
}
