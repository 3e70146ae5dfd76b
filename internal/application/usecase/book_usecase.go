package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

const (
	maxTitleLength       = 128
	maxAuthorLength      = 128
	maxDescriptionLength = 1000
	maxLanguageLength    = 32
)

// BookUseCase casos de uso CRUD para libros. Las copias se manejan vía ediciones.
type BookUseCase struct {
	repo         repository.BookRepository
	categoryRepo repository.CategoryRepository
	cache        ports.Cache
}

// NewBookUseCase construye el caso de uso. cache puede ser nil.
func NewBookUseCase(repo repository.BookRepository, categoryRepo repository.CategoryRepository, cache ports.Cache) *BookUseCase {
	return &BookUseCase{repo: repo, categoryRepo: categoryRepo, cache: cache}
}

// Create crea un libro. La categoría principal es obligatoria y debe existir.
func (uc *BookUseCase) Create(ctx context.Context, in dto.CreateBookRequest) (*dto.BookResponse, error) {
	book := &entity.Book{
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Description: strings.TrimSpace(in.Description),
		Language:    strings.TrimSpace(in.Language),
		Pages:       in.Pages,
	}
	if err := validateBook(book); err != nil {
		return nil, err
	}
	if err := uc.assignCategories(ctx, book, int64(in.Category), in.CategoryIDs); err != nil {
		return nil, err
	}
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now
	if err := uc.repo.Create(ctx, book); err != nil {
		return nil, err
	}
	// si falla, el resumen se corrige al caducar su TTL
	_ = ports.InvalidateDashboard(ctx, uc.cache)
	return toBookResponse(book), nil
}

// GetByID obtiene un libro por ID. (nil, nil) si no existe.
func (uc *BookUseCase) GetByID(ctx context.Context, id int64) (*dto.BookResponse, error) {
	book, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, nil
	}
	return toBookResponse(book), nil
}

// List lista libros filtrando por autor (subcadena) y categoría (id o nombre).
func (uc *BookUseCase) List(ctx context.Context, q dto.BookListQuery) ([]dto.BookResponse, error) {
	q.PageRequest.Normalize()
	list, err := uc.repo.List(ctx, entity.BookFilter{
		Author:   strings.TrimSpace(q.Author),
		Category: strings.TrimSpace(q.Category),
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.BookResponse, 0, len(list))
	for _, b := range list {
		items = append(items, *toBookResponse(b))
	}
	return items, nil
}

// Update actualización parcial; aplica las mismas validaciones que Create.
func (uc *BookUseCase) Update(ctx context.Context, id int64, in dto.UpdateBookRequest) (*dto.BookResponse, error) {
	book, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrNotFound
	}
	if in.Title != nil {
		book.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		book.Author = strings.TrimSpace(*in.Author)
	}
	if in.Description != nil {
		book.Description = strings.TrimSpace(*in.Description)
	}
	if in.Language != nil {
		book.Language = strings.TrimSpace(*in.Language)
	}
	if in.Pages != nil {
		book.Pages = *in.Pages
	}
	if err := validateBook(book); err != nil {
		return nil, err
	}
	if in.Category != nil || in.CategoryIDs != nil {
		oldPrimary := int64(0)
		if book.CategoryID != nil {
			oldPrimary = *book.CategoryID
		}
		primary := oldPrimary
		if in.Category != nil {
			primary = int64(*in.Category)
		}
		extra := in.CategoryIDs
		if extra == nil {
			// se conservan las secundarias; la principal anterior se sustituye
			for _, cid := range book.CategoryIDs {
				if cid != oldPrimary {
					extra = append(extra, dto.FlexibleID(cid))
				}
			}
		}
		if err := uc.assignCategories(ctx, book, primary, extra); err != nil {
			return nil, err
		}
	}
	book.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, book); err != nil {
		return nil, err
	}
	return toBookResponse(book), nil
}

// Delete elimina un libro. ErrConflict si alguna de sus ediciones está prestada.
func (uc *BookUseCase) Delete(ctx context.Context, id int64) error {
	book, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if book == nil {
		return domain.ErrNotFound
	}
	busy, err := uc.repo.HasActiveLoans(ctx, id)
	if err != nil {
		return err
	}
	if busy {
		return fmt.Errorf("%w: el libro tiene préstamos activos", domain.ErrConflict)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = ports.InvalidateDashboard(ctx, uc.cache)
	return nil
}

// assignCategories valida que la principal y las extra existan y fija CategoryIDs sin duplicados.
func (uc *BookUseCase) assignCategories(ctx context.Context, book *entity.Book, primary int64, extra []dto.FlexibleID) error {
	if primary <= 0 {
		return fmt.Errorf("%w: la categoría es obligatoria", domain.ErrInvalidInput)
	}
	ids := []int64{primary}
	seen := map[int64]bool{primary: true}
	for _, e := range extra {
		id := int64(e)
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	var primaryName string
	for _, id := range ids {
		cat, err := uc.categoryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("%w: la categoría %d no existe", domain.ErrInvalidInput, id)
		}
		if id == primary {
			primaryName = cat.Name
		}
	}
	book.CategoryID = &primary
	book.CategoryName = primaryName
	book.CategoryIDs = ids
	return nil
}

func validateBook(b *entity.Book) error {
	switch {
	case b.Title == "" || utf8.RuneCountInString(b.Title) > maxTitleLength:
		return fmt.Errorf("%w: el título es obligatorio (máximo %d caracteres)", domain.ErrInvalidInput, maxTitleLength)
	case b.Author == "" || utf8.RuneCountInString(b.Author) > maxAuthorLength:
		return fmt.Errorf("%w: el autor es obligatorio (máximo %d caracteres)", domain.ErrInvalidInput, maxAuthorLength)
	case utf8.RuneCountInString(b.Description) > maxDescriptionLength:
		return fmt.Errorf("%w: la descripción admite hasta %d caracteres", domain.ErrInvalidInput, maxDescriptionLength)
	case utf8.RuneCountInString(b.Language) > maxLanguageLength:
		return fmt.Errorf("%w: idioma demasiado largo", domain.ErrInvalidInput)
	case b.Pages < 0:
		return fmt.Errorf("%w: el número de páginas no puede ser negativo", domain.ErrInvalidInput)
	}
	return nil
}

func toBookResponse(b *entity.Book) *dto.BookResponse {
	if b == nil {
		return nil
	}
	categories := b.CategoryIDs
	if categories == nil {
		categories = []int64{}
	}
	return &dto.BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Language:    b.Language,
		Pages:       b.Pages,
		Category:    b.CategoryName,
		CategoryID:  b.CategoryID,
		Categories:  categories,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
