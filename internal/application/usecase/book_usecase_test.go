package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

type memCategoryRepo struct {
	items  map[int64]*entity.Category
	nextID int64
}

func newMemCategoryRepo(names ...string) *memCategoryRepo {
	r := &memCategoryRepo{items: map[int64]*entity.Category{}}
	for _, n := range names {
		_ = r.Create(context.Background(), &entity.Category{Name: n})
	}
	return r
}

func (r *memCategoryRepo) Create(_ context.Context, c *entity.Category) error {
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *memCategoryRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCategoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	for _, c := range r.items {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	out := make([]*entity.Category, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memCategoryRepo) Update(_ context.Context, c *entity.Category) error {
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *memCategoryRepo) Delete(_ context.Context, id int64) error {
	delete(r.items, id)
	return nil
}

type memBookRepo struct {
	items  map[int64]*entity.Book
	busy   map[int64]bool
	nextID int64
}

func newMemBookRepo() *memBookRepo {
	return &memBookRepo{items: map[int64]*entity.Book{}, busy: map[int64]bool{}}
}

func (r *memBookRepo) Create(_ context.Context, b *entity.Book) error {
	r.nextID++
	b.ID = r.nextID
	cp := *b
	r.items[b.ID] = &cp
	return nil
}

func (r *memBookRepo) GetByID(_ context.Context, id int64) (*entity.Book, error) {
	b, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBookRepo) List(_ context.Context, f entity.BookFilter) ([]*entity.Book, error) {
	var out []*entity.Book
	for _, b := range r.items {
		if f.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(f.Author)) {
			continue
		}
		if f.Category != "" {
			id, _ := strconv.ParseInt(f.Category, 10, 64)
			if (b.CategoryID == nil || *b.CategoryID != id) && !strings.EqualFold(b.CategoryName, f.Category) {
				continue
			}
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *memBookRepo) Update(_ context.Context, b *entity.Book) error {
	cp := *b
	r.items[b.ID] = &cp
	return nil
}

func (r *memBookRepo) Delete(_ context.Context, id int64) error {
	delete(r.items, id)
	return nil
}

func (r *memBookRepo) HasActiveLoans(_ context.Context, id int64) (bool, error) {
	return r.busy[id], nil
}

func TestBookUseCase_CRUDRoundTrip(t *testing.T) {
	ctx := context.Background()
	cats := newMemCategoryRepo("Novela", "Poesía")
	books := newMemBookRepo()
	uc := NewBookUseCase(books, cats, nil)

	created, err := uc.Create(ctx, dto.CreateBookRequest{
		Title:       "Cien años de soledad",
		Author:      "Gabriel García Márquez",
		Description: "Macondo",
		Category:    1,
		CategoryIDs: []dto.FlexibleID{2, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "Novela", created.Category)
	assert.Equal(t, []int64{1, 2}, created.Categories)

	got, err := uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cien años de soledad", got.Title)
	assert.Equal(t, "Macondo", got.Description)

	newTitle := "Cien años de soledad (ed. conmemorativa)"
	newCat := dto.FlexibleID(2)
	updated, err := uc.Update(ctx, created.ID, dto.UpdateBookRequest{Title: &newTitle, Category: &newCat})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, "Poesía", updated.Category)
	assert.Equal(t, []int64{2}, updated.Categories)
	assert.Equal(t, "Gabriel García Márquez", updated.Author, "los campos no enviados se conservan")

	list, err := uc.List(ctx, dto.BookListQuery{Author: "garcía"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = uc.List(ctx, dto.BookListQuery{Category: "poesía"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, uc.Delete(ctx, created.ID))
	got, err = uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, uc.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestBookUseCase_Validaciones(t *testing.T) {
	ctx := context.Background()
	uc := NewBookUseCase(newMemBookRepo(), newMemCategoryRepo("Novela"), nil)

	cases := map[string]dto.CreateBookRequest{
		"sin título":            {Author: "A", Category: 1},
		"sin autor":             {Title: "T", Category: 1},
		"título largo":          {Title: strings.Repeat("x", 129), Author: "A", Category: 1},
		"descripción larga":     {Title: "T", Author: "A", Description: strings.Repeat("d", 1001), Category: 1},
		"sin categoría":         {Title: "T", Author: "A"},
		"categoría inexistente": {Title: "T", Author: "A", Category: 99},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestBookUseCase_DeleteConPrestamosActivos(t *testing.T) {
	ctx := context.Background()
	books := newMemBookRepo()
	uc := NewBookUseCase(books, newMemCategoryRepo("Novela"), nil)
	b, err := uc.Create(ctx, dto.CreateBookRequest{Title: "T", Author: "A", Category: 1})
	require.NoError(t, err)

	books.busy[b.ID] = true
	assert.ErrorIs(t, uc.Delete(ctx, b.ID), domain.ErrConflict)
}

func TestCategoryUseCase_NombreUnico(t *testing.T) {
	ctx := context.Background()
	uc := NewCategoryUseCase(newMemCategoryRepo("Novela"))

	_, err := uc.Create(ctx, dto.CategoryRequest{Name: "novela"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	c, err := uc.Create(ctx, dto.CategoryRequest{Name: " Ensayo "})
	require.NoError(t, err)
	assert.Equal(t, "Ensayo", c.Name)

	_, err = uc.Update(ctx, c.ID, dto.CategoryRequest{Name: "Novela"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = uc.Create(ctx, dto.CategoryRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.Delete(ctx, 42), domain.ErrNotFound)
}

func TestFlexibleID_AceptaStringYNumero(t *testing.T) {
	var in dto.CreateBookRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","author":"A","category":"3","category_ids":[4,"5"]}`), &in))
	assert.Equal(t, dto.FlexibleID(3), in.Category)
	assert.Equal(t, []dto.FlexibleID{4, 5}, in.CategoryIDs)
}

func TestBookUseCase_AltaYBajaInvalidanDashboard(t *testing.T) {
	ctx := context.Background()
	books := newMemBookRepo()
	cache := &memCache{}
	uc := NewBookUseCase(books, newMemCategoryRepo("Novela"), cache)

	b, err := uc.Create(ctx, dto.CreateBookRequest{Title: "T", Author: "A", Category: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{ports.DashboardCacheKey}, cache.deleted)

	title := "Otro"
	_, err = uc.Update(ctx, b.ID, dto.UpdateBookRequest{Title: &title})
	require.NoError(t, err)
	assert.Len(t, cache.deleted, 1, "editar no cambia los conteos")

	books.busy[b.ID] = true
	require.ErrorIs(t, uc.Delete(ctx, b.ID), domain.ErrConflict)
	assert.Len(t, cache.deleted, 1)

	books.busy[b.ID] = false
	require.NoError(t, uc.Delete(ctx, b.ID))
	assert.Len(t, cache.deleted, 2)
}
