package inventory

import (
	"context"

	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/inventory"
)

// CatalogUseCase búsqueda de productos sobre el snapshot vigente (sin ir a la red por tecla).
type CatalogUseCase struct {
	snapshots *SnapshotService
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(snapshots *SnapshotService) *CatalogUseCase {
	return &CatalogUseCase{snapshots: snapshots}
}

// Search devuelve hasta inventory.DefaultSearchLimit coincidencias por nombre o código de
// barras. Con term vacío devuelve el snapshot completo.
func (uc *CatalogUseCase) Search(ctx context.Context, term string) (*dto.ProductListResponse, error) {
	snap, err := uc.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	var found []entity.Product
	if term == "" {
		found = snap.Products()
	} else {
		found = snap.Search(term, inventory.DefaultSearchLimit)
	}
	items := make([]dto.ProductResponse, 0, len(found))
	for _, p := range found {
		items = append(items, dto.ToProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, FetchedAt: snap.FetchedAt()}, nil
}
