// Package lending contiene el ciclo de vida de los préstamos: alta con reserva de copias,
// inicio (entrega al lector) y devolución.
package lending

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

// LoanUseCase registra préstamos de forma transaccional con bloqueo de fila sobre las copias
// (SELECT FOR UPDATE) y Commit/Rollback. Tras cada cambio publica un evento e invalida el dashboard.
type LoanUseCase struct {
	txRunner  TxRunner
	loanRepo  repository.LoanRepository
	userRepo  repository.UserRepository
	publisher ports.EventPublisher
	cache     ports.Cache
	log       *logger.Logger
	now       func() time.Time
}

// NewLoanUseCase construye el caso de uso.
func NewLoanUseCase(
	txRunner TxRunner,
	loanRepo repository.LoanRepository,
	userRepo repository.UserRepository,
	publisher ports.EventPublisher,
	cache ports.Cache,
	log *logger.Logger,
) *LoanUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LoanUseCase{
		txRunner:  txRunner,
		loanRepo:  loanRepo,
		userRepo:  userRepo,
		publisher: publisher,
		cache:     cache,
		log:       log.Component("prestamos"),
		now:       time.Now,
	}
}

// Create reserva una copia de cada edición y registra el préstamo en estado Pendiente.
func (uc *LoanUseCase) Create(ctx context.Context, in dto.CreateLoanRequest) (*dto.LoanResponse, error) {
	now := uc.now()
	loanDate := dateOnly(now)
	if strings.TrimSpace(in.LoanDate) != "" {
		d, err := time.Parse(dto.DateLayout, strings.TrimSpace(in.LoanDate))
		if err != nil {
			return nil, fmt.Errorf("%w: fecha_prestamo debe tener formato AAAA-MM-DD", domain.ErrInvalidInput)
		}
		loanDate = d
	}
	dueDate, err := time.Parse(dto.DateLayout, strings.TrimSpace(in.DueDate))
	if err != nil {
		return nil, fmt.Errorf("%w: fecha_devolucion debe tener formato AAAA-MM-DD", domain.ErrInvalidInput)
	}
	if dueDate.Before(loanDate) {
		return nil, fmt.Errorf("%w: la fecha de devolución es anterior a la de préstamo", domain.ErrInvalidInput)
	}
	if in.RentalPrice.IsNegative() {
		return nil, fmt.Errorf("%w: el precio de alquiler no puede ser negativo", domain.ErrInvalidInput)
	}
	editionIDs, err := validEditionIDs(in.EditionIDs)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	loan := &entity.Loan{
		UserID:      in.UserID,
		LoanDate:    loanDate,
		DueDate:     dueDate,
		RentalPrice: in.RentalPrice.Round(2),
		Status:      entity.LoanPending,
		EditionIDs:  editionIDs,
		CreatedAt:   now,
	}

	// Las ediciones se bloquean en orden de id para que dos préstamos concurrentes no se interbloqueen.
	err = uc.txRunner.RunLoan(ctx, func(loanRepo repository.LoanRepository, stockRepo repository.CopyStockRepository) error {
		for _, edID := range editionIDs {
			stock, err := stockRepo.GetForUpdate(ctx, edID)
			if err != nil {
				return err
			}
			if stock == nil {
				return fmt.Errorf("%w: la edición %d no existe o no tiene copias", domain.ErrInvalidInput, edID)
			}
			if stock.Available < 1 {
				return fmt.Errorf("%w: edición %d", domain.ErrNoCopiesAvailable, edID)
			}
			if err := stockRepo.Adjust(ctx, edID, -1); err != nil {
				return err
			}
		}
		return loanRepo.Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	uc.afterChange(ctx, ports.EventLoanCreated, loan)
	out := toLoanResponse(loan, now)
	return &out, nil
}

// Start entrega el préstamo al lector: Pendiente -> En curso.
func (uc *LoanUseCase) Start(ctx context.Context, id int64) (*dto.LoanResponse, error) {
	return uc.transition(ctx, id, entity.LoanInProgress, ports.EventLoanStarted)
}

// Return registra la devolución (o la cancelación de un pendiente) y libera las copias.
func (uc *LoanUseCase) Return(ctx context.Context, id int64) (*dto.LoanResponse, error) {
	return uc.transition(ctx, id, entity.LoanReturned, ports.EventLoanReturned)
}

func (uc *LoanUseCase) transition(ctx context.Context, id int64, to entity.LoanStatus, event string) (*dto.LoanResponse, error) {
	now := uc.now()
	var loan *entity.Loan
	err := uc.txRunner.RunLoan(ctx, func(loanRepo repository.LoanRepository, stockRepo repository.CopyStockRepository) error {
		l, err := loanRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.ErrNotFound
		}
		if !l.Status.CanTransition(to) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, l.Status, to)
		}
		var returnedAt *time.Time
		if to == entity.LoanReturned {
			returnedAt = &now
			for _, edID := range uniqueSorted(l.EditionIDs) {
				if err := stockRepo.Adjust(ctx, edID, 1); err != nil {
					return err
				}
			}
		}
		if err := loanRepo.UpdateStatus(ctx, id, to, returnedAt); err != nil {
			return err
		}
		l.Status = to
		l.ReturnedAt = returnedAt
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.afterChange(ctx, event, loan)
	out := toLoanResponse(loan, now)
	return &out, nil
}

// Get obtiene un préstamo. Un usuario no administrador solo puede ver los suyos.
// (nil, nil) si no existe.
func (uc *LoanUseCase) Get(ctx context.Context, id, requesterID int64, isAdmin bool) (*dto.LoanResponse, error) {
	loan, err := uc.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, nil
	}
	if !isAdmin && loan.UserID != requesterID {
		return nil, domain.ErrForbidden
	}
	out := toLoanResponse(loan, uc.now())
	return &out, nil
}

// List lista préstamos filtrando por estado (cualquier grafía conocida) y usuario.
func (uc *LoanUseCase) List(ctx context.Context, q dto.LoanListQuery) ([]dto.LoanResponse, error) {
	q.PageRequest.Normalize()
	filter := entity.LoanFilter{Limit: q.Limit, Offset: q.Offset}
	if strings.TrimSpace(q.Status) != "" {
		st, err := entity.ParseLoanStatus(q.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		filter.Status = &st
	}
	if q.UserID > 0 {
		uid := q.UserID
		filter.UserID = &uid
	}
	return uc.list(ctx, filter)
}

// ListByUser préstamos del usuario autenticado.
func (uc *LoanUseCase) ListByUser(ctx context.Context, userID int64, page dto.PageRequest) ([]dto.LoanResponse, error) {
	page.Normalize()
	return uc.list(ctx, entity.LoanFilter{UserID: &userID, Limit: page.Limit, Offset: page.Offset})
}

func (uc *LoanUseCase) list(ctx context.Context, filter entity.LoanFilter) ([]dto.LoanResponse, error) {
	loans, err := uc.loanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := make([]dto.LoanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, toLoanResponse(l, now))
	}
	return out, nil
}

// afterChange publica el evento e invalida el dashboard. Ningún fallo aquí revierte el préstamo.
func (uc *LoanUseCase) afterChange(ctx context.Context, eventType string, loan *entity.Loan) {
	if err := ports.InvalidateDashboard(ctx, uc.cache); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo invalidar el cache del dashboard")
	}
	if uc.publisher == nil {
		return
	}
	ev := ports.LoanEvent{
		Type:       eventType,
		LoanID:     loan.ID,
		UserID:     loan.UserID,
		Status:     loan.Status.String(),
		EditionIDs: loan.EditionIDs,
		OccurredAt: uc.now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", eventType).Int64("loan_id", loan.ID).Msg("no se pudo publicar evento de préstamo")
	}
}

func toLoanResponse(l *entity.Loan, now time.Time) dto.LoanResponse {
	editions := l.EditionIDs
	if editions == nil {
		editions = []int64{}
	}
	return dto.LoanResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		LoanDate:    l.LoanDate.Format(dto.DateLayout),
		DueDate:     l.DueDate.Format(dto.DateLayout),
		ReturnedAt:  l.ReturnedAt,
		RentalPrice: l.RentalPrice.Round(2),
		Status:      l.Status.String(),
		EditionIDs:  editions,
		DaysOnLoan:  l.DaysOnLoan(now),
		Overdue:     l.IsOverdue(now),
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// validEditionIDs exige al menos una edición, ids positivos y sin repetir; devuelve los ids
// ordenados.
func validEditionIDs(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: el préstamo debe incluir al menos una edición", domain.ErrInvalidInput)
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: id de edición inválido %d", domain.ErrInvalidInput, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: la edición %d está repetida", domain.ErrInvalidInput, id)
		}
		seen[id] = true
	}
	return uniqueSorted(ids), nil
}

// uniqueSorted ids de un préstamo ya guardado, en orden de bloqueo.
func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
