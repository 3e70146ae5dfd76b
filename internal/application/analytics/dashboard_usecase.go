// Package analytics contiene los casos de uso de lectura para el panel de
// administración: el resumen del dashboard y los reportes exportables.
package analytics

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DashboardUseCase genera el resumen de conteos del dashboard.
//
// Fuente de datos: StatsRepository (consultas read-only). El resultado se guarda en cache
// durante ttl; los casos de uso de préstamos invalidan la clave al cambiar un préstamo.
type DashboardUseCase struct {
	statsRepo repository.StatsRepository
	cache     ports.Cache
	ttl       time.Duration
	now       func() time.Time
}

// NewDashboardUseCase construye el caso de uso. cache puede ser nil (sin cache).
func NewDashboardUseCase(statsRepo repository.StatsRepository, cache ports.Cache, ttl time.Duration) *DashboardUseCase {
	return &DashboardUseCase{statsRepo: statsRepo, cache: cache, ttl: ttl, now: time.Now}
}

// GetSummary construye el DashboardSummaryDTO.
//
// Seis consultas en paralelo:
//  1. CountUsers / CountBooks / CountCopies
//  2. CountLoansByStatus(Pendiente) y CountLoansByStatus(En curso)
//  3. CountOverdueLoans(hoy)
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	if cached, ok := uc.fromCache(ctx); ok {
		return cached, nil
	}

	var (
		users, books, copies int
		pending, inProgress  int
		overdue              int
	)
	today := uc.now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = uc.statsRepo.CountUsers(gctx)
		return wrap("usuarios", err)
	})
	g.Go(func() (err error) {
		books, err = uc.statsRepo.CountBooks(gctx)
		return wrap("libros", err)
	})
	g.Go(func() (err error) {
		copies, err = uc.statsRepo.CountCopies(gctx)
		return wrap("copias", err)
	})
	g.Go(func() (err error) {
		pending, err = uc.statsRepo.CountLoansByStatus(gctx, entity.LoanPending)
		return wrap("préstamos pendientes", err)
	})
	g.Go(func() (err error) {
		inProgress, err = uc.statsRepo.CountLoansByStatus(gctx, entity.LoanInProgress)
		return wrap("préstamos en curso", err)
	})
	g.Go(func() (err error) {
		overdue, err = uc.statsRepo.CountOverdueLoans(gctx, today)
		return wrap("préstamos vencidos", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &dto.DashboardSummaryDTO{
		TotalUsers:   users,
		TotalBooks:   books,
		TotalCopies:  copies,
		PendingLoans: pending,
		ActiveLoans:  pending + inProgress,
		OverdueLoans: overdue,
	}
	uc.toCache(ctx, summary)
	return summary, nil
}

func (uc *DashboardUseCase) fromCache(ctx context.Context) (*dto.DashboardSummaryDTO, bool) {
	if uc.cache == nil || uc.ttl <= 0 {
		return nil, false
	}
	raw, ok, err := uc.cache.Get(ctx, ports.DashboardCacheKey)
	if err != nil || !ok {
		return nil, false
	}
	var out dto.DashboardSummaryDTO
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

// toCache es best-effort: un fallo del cache no afecta la respuesta.
func (uc *DashboardUseCase) toCache(ctx context.Context, s *dto.DashboardSummaryDTO) {
	if uc.cache == nil || uc.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = uc.cache.Set(ctx, ports.DashboardCacheKey, raw, uc.ttl)
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("dashboard: %s: %w", what, err)
	}
	return nil
}
