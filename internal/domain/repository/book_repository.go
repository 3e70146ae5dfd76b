package repository

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// BookRepository define el puerto de persistencia para Book (DIP).
type BookRepository interface {
	// Create inserta el libro y sus asociaciones de categoría; asigna book.ID.
	Create(ctx context.Context, book *entity.Book) error
	GetByID(ctx context.Context, id int64) (*entity.Book, error)
	List(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error)
	// Update reescribe los campos y reemplaza las asociaciones de categoría.
	Update(ctx context.Context, book *entity.Book) error
	Delete(ctx context.Context, id int64) error
	// HasActiveLoans indica si alguna edición del libro está en un préstamo pendiente o en curso.
	HasActiveLoans(ctx context.Context, id int64) (bool, error)
}
