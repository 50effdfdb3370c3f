// Package analytics contiene las métricas derivadas del libro de ventas y del snapshot de
// inventario, y el caso de uso del dashboard.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/kiosco-pos/internal/application/dto"
	"github.com/jhoicas/kiosco-pos/internal/domain/entity"
	"github.com/jhoicas/kiosco-pos/internal/domain/inventory"
	"github.com/jhoicas/kiosco-pos/internal/domain/repository"
	"github.com/jhoicas/kiosco-pos/pkg/money"
)

// SnapshotProvider entrega el snapshot de inventario vigente.
type SnapshotProvider interface {
	Current(ctx context.Context) (*inventory.Snapshot, error)
}

// DashboardUseCase arma el resumen del dashboard. No guarda nada: recalcula en cada llamada.
type DashboardUseCase struct {
	snapshots SnapshotProvider
	sales     repository.SaleRepository
	now       func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(snapshots SnapshotProvider, sales repository.SaleRepository) *DashboardUseCase {
	return &DashboardUseCase{snapshots: snapshots, sales: sales, now: time.Now}
}

// GetSummary construye el DashboardSummaryDTO.
//
// Dos consultas en paralelo:
//  1. snapshot de inventario → LowStock, ProductCount
//  2. historial de ventas    → TodayRevenue, TopSellers
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	now := uc.now()

	type snapshotResult struct {
		snap *inventory.Snapshot
		err  error
	}
	type salesResult struct {
		sales []entity.SaleRecord
		err   error
	}

	snapCh := make(chan snapshotResult, 1)
	salesCh := make(chan salesResult, 1)

	go func() {
		snap, err := uc.snapshots.Current(ctx)
		snapCh <- snapshotResult{snap, err}
	}()
	go func() {
		sales, err := uc.sales.List(ctx)
		salesCh <- salesResult{sales, err}
	}()

	snap := <-snapCh
	sales := <-salesCh

	if snap.err != nil {
		return nil, fmt.Errorf("dashboard: inventario: %w", snap.err)
	}
	if sales.err != nil {
		return nil, fmt.Errorf("dashboard: ventas: %w", sales.err)
	}

	revenue := TodaysRevenue(sales.sales, now)
	low := LowStock(snap.snap.Products())
	top := TopSellers(sales.sales, DefaultTopSellers)

	summary := &dto.DashboardSummaryDTO{
		TodayRevenue:      revenue.Round(2),
		TodayRevenueLabel: money.Format(revenue),
		ProductCount:      snap.snap.Len(),
		SalesCount:        len(sales.sales),
		LowStock:          make([]dto.LowStockItemDTO, 0, len(low)),
		AnyLowStock:       len(low) > 0,
		TopSellers:        make([]dto.TopSellerDTO, 0, len(top)),
		DateLabel:         dayLabel(now),
	}
	for i, e := range low {
		summary.LowStock = append(summary.LowStock, LowStockItem(e, i+1, 0))
	}
	for _, e := range top {
		summary.TopSellers = append(summary.TopSellers, dto.TopSellerDTO{
			ProductName:       e.ProductName,
			TotalQuantitySold: e.TotalQuantitySold,
		})
	}
	return summary, nil
}

// LowStockItem mapea una entrada de stock bajo al DTO.
func LowStockItem(e LowStockEntry, priority, unitsSold int) dto.LowStockItemDTO {
	return dto.LowStockItemDTO{
		ProductID:     e.Product.ID,
		Barcode:       e.Product.Barcode,
		Name:          e.Product.Name,
		CategoryName:  e.Product.CategoryName,
		StockQuantity: e.Product.StockQuantity,
		Critical:      e.Critical,
		UnitsSold:     unitsSold,
		Priority:      priority,
	}
}

// dayLabel devuelve una etiqueta legible del día, ej: "19 de Octubre 2026".
func dayLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%d de %s %d", t.Day(), months[t.Month()-1], t.Year())
}
