package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

const maxCategoryName = 64

// CategoryUseCase CRUD de categorías (géneros).
type CategoryUseCase struct {
	repo repository.CategoryRepository
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{repo: repo}
}

// List devuelve todas las categorías con su número de libros.
func (uc *CategoryUseCase) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCategoryResponse(c))
	}
	return out, nil
}

// Create crea una categoría. Nombre único (ErrDuplicate).
func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	name, err := validCategoryName(in.Name)
	if err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	cat := &entity.Category{Name: name}
	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	out := toCategoryResponse(cat)
	return &out, nil
}

// Update renombra una categoría.
func (uc *CategoryUseCase) Update(ctx context.Context, id int64, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	name, err := validCategoryName(in.Name)
	if err != nil {
		return nil, err
	}
	cat, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, domain.ErrNotFound
	}
	other, err := uc.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if other != nil && other.ID != id {
		return nil, domain.ErrDuplicate
	}
	cat.Name = name
	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	out := toCategoryResponse(cat)
	return &out, nil
}

// Delete elimina la categoría; sus libros quedan sin categoría principal.
func (uc *CategoryUseCase) Delete(ctx context.Context, id int64) error {
	cat, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return domain.ErrNotFound
	}
	return uc.repo.Delete(ctx, id)
}

func validCategoryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > maxCategoryName {
		return "", fmt.Errorf("%w: el nombre de la categoría es obligatorio (máximo %d caracteres)", domain.ErrInvalidInput, maxCategoryName)
	}
	return name, nil
}

func toCategoryResponse(c *entity.Category) dto.CategoryResponse {
	return dto.CategoryResponse{ID: c.ID, Name: c.Name, BookCount: c.BookCount}
}
