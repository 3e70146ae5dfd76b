package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// LoanRepository define el puerto de persistencia para Loan (DIP).
type LoanRepository interface {
	// Create inserta el préstamo y sus filas prestamo-edición; asigna loan.ID.
	Create(ctx context.Context, loan *entity.Loan) error
	GetByID(ctx context.Context, id int64) (*entity.Loan, error)
	// GetForUpdate igual que GetByID pero bloquea la fila del préstamo.
	GetForUpdate(ctx context.Context, id int64) (*entity.Loan, error)
	List(ctx context.Context, filter entity.LoanFilter) ([]*entity.Loan, error)
	UpdateStatus(ctx context.Context, id int64, status entity.LoanStatus, returnedAt *time.Time) error
}
