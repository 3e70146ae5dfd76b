package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

const (
	maxISBNLength  = 45
	minPublishYear = 1400
)

// EditionUseCase ediciones de un libro y ajuste manual de copias.
type EditionUseCase struct {
	repo     repository.EditionRepository
	bookRepo repository.BookRepository
	cache    ports.Cache
	now      func() time.Time
}

// NewEditionUseCase construye el caso de uso. cache puede ser nil.
func NewEditionUseCase(repo repository.EditionRepository, bookRepo repository.BookRepository, cache ports.Cache) *EditionUseCase {
	return &EditionUseCase{repo: repo, bookRepo: bookRepo, cache: cache, now: time.Now}
}

// ListByBook ediciones del libro con sus copias. ErrNotFound si el libro no existe.
func (uc *EditionUseCase) ListByBook(ctx context.Context, bookID int64) ([]dto.EditionResponse, error) {
	book, err := uc.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.repo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EditionResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEditionResponse(e))
	}
	return out, nil
}

// Create registra una edición y sus copias iniciales (disponibles = totales = copias).
func (uc *EditionUseCase) Create(ctx context.Context, bookID int64, in dto.CreateEditionRequest) (*dto.EditionResponse, error) {
	isbn := strings.TrimSpace(in.ISBN)
	if isbn == "" || len(isbn) > maxISBNLength {
		return nil, fmt.Errorf("%w: el ISBN es obligatorio (máximo %d caracteres)", domain.ErrInvalidInput, maxISBNLength)
	}
	maxYear := uc.now().Year() + 1
	if in.PublicationYear < minPublishYear || in.PublicationYear > maxYear {
		return nil, fmt.Errorf("%w: año de publicación fuera de rango (%d-%d)", domain.ErrInvalidInput, minPublishYear, maxYear)
	}
	if in.Copies < 0 {
		return nil, fmt.Errorf("%w: el número de copias no puede ser negativo", domain.ErrInvalidInput)
	}
	book, err := uc.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrNotFound
	}
	ed := &entity.Edition{BookID: bookID, ISBN: isbn, PublicationYear: in.PublicationYear}
	if err := uc.repo.Create(ctx, ed, in.Copies); err != nil {
		return nil, err
	}
	_ = ports.InvalidateDashboard(ctx, uc.cache)
	ed.Available = in.Copies
	ed.Total = in.Copies
	out := toEditionResponse(ed)
	return &out, nil
}

// SetStock fija copias disponibles y totales de una edición (0 <= disponibles <= totales).
// El repositorio rechaza con ErrConflict un total que no cubre las copias prestadas.
func (uc *EditionUseCase) SetStock(ctx context.Context, editionID int64, in dto.UpdateStockRequest) (*dto.EditionResponse, error) {
	stock := entity.CopyStock{EditionID: editionID, Available: in.Available, Total: in.Total}
	if !stock.Valid() {
		return nil, fmt.Errorf("%w: se requiere 0 <= disponibles <= totales", domain.ErrInvalidInput)
	}
	ed, err := uc.repo.GetByID(ctx, editionID)
	if err != nil {
		return nil, err
	}
	if ed == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.repo.SetStock(ctx, editionID, in.Available, in.Total); err != nil {
		return nil, err
	}
	_ = ports.InvalidateDashboard(ctx, uc.cache)
	ed.Available = in.Available
	ed.Total = in.Total
	out := toEditionResponse(ed)
	return &out, nil
}

func toEditionResponse(e *entity.Edition) dto.EditionResponse {
	return dto.EditionResponse{
		ID:              e.ID,
		BookID:          e.BookID,
		ISBN:            e.ISBN,
		PublicationYear: e.PublicationYear,
		Available:       e.Available,
		Total:           e.Total,
	}
}
