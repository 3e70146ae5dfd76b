package repository

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// EditionRepository ediciones de un libro y su stock agregado.
type EditionRepository interface {
	// Create inserta la edición y su fila de copias (available = total = copies).
	Create(ctx context.Context, edition *entity.Edition, copies int) error
	GetByID(ctx context.Context, id int64) (*entity.Edition, error)
	ListByBook(ctx context.Context, bookID int64) ([]*entity.Edition, error)
	// SetStock fija las copias en una transacción; ErrConflict si available más las copias
	// retenidas por préstamos activos supera total.
	SetStock(ctx context.Context, editionID int64, available, total int) error
}

// CopyStockRepository operaciones de stock dentro de una transacción de préstamo.
type CopyStockRepository interface {
	// GetForUpdate bloquea la fila de copias de la edición (SELECT ... FOR UPDATE).
	// Devuelve (nil, nil) si la edición no tiene copias registradas.
	GetForUpdate(ctx context.Context, editionID int64) (*entity.CopyStock, error)
	// Adjust suma delta a las copias disponibles de la edición.
	Adjust(ctx context.Context, editionID int64, delta int) error
}
