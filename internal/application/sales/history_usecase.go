package sales

import (
	"context"

	"github.com/jhoicas/kiosco-pos/internal/application/analytics"
	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/pkg/money"
)

// HistoryUseCase historial de ventas, de la más reciente a la más antigua.
type HistoryUseCase struct {
	sales repository.SaleRepository
}

// NewHistoryUseCase construye el caso de uso.
func NewHistoryUseCase(sales repository.SaleRepository) *HistoryUseCase {
	return &HistoryUseCase{sales: sales}
}

// List devuelve una página del historial.
func (uc *HistoryUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.SaleListResponse, error) {
	page.Normalize()
	all, err := uc.sales.List(ctx)
	if err != nil {
		return nil, err
	}
	sorted := analytics.SortByDateDesc(all)

	out := &dto.SaleListResponse{
		Items: make([]dto.SaleDTO, 0, page.Limit),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(sorted)},
	}
	if page.Offset >= len(sorted) {
		return out, nil
	}
	end := page.Offset + page.Limit
	if end > len(sorted) {
		end = len(sorted)
	}
	for _, s := range sorted[page.Offset:end] {
		out.Items = append(out.Items, ToSaleDTO(s))
	}
	return out, nil
}

// ToSaleDTO mapea la venta al DTO del historial.
func ToSaleDTO(s entity.SaleRecord) dto.SaleDTO {
	out := dto.SaleDTO{
		ID:          s.ID,
		DateTime:    s.DateTime,
		Seller:      s.SellerUsername,
		TotalAmount: s.TotalAmount,
		TotalLabel:  money.Format(s.TotalAmount),
		Details:     make([]dto.SaleDetailDTO, 0, len(s.Details)),
	}
	for _, d := range s.Details {
		out.Details = append(out.Details, dto.SaleDetailDTO{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Subtotal:    d.Subtotal,
		})
	}
	return out
}
