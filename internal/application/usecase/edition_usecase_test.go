package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// memEditionRepo ediciones en memoria; lent simula las copias retenidas por préstamos activos.
type memEditionRepo struct {
	items  map[int64]*entity.Edition
	lent   map[int64]int
	nextID int64
}

func newMemEditionRepo() *memEditionRepo {
	return &memEditionRepo{items: map[int64]*entity.Edition{}, lent: map[int64]int{}}
}

func (r *memEditionRepo) Create(_ context.Context, e *entity.Edition, copies int) error {
	r.nextID++
	e.ID = r.nextID
	e.Available, e.Total = copies, copies
	cp := *e
	r.items[e.ID] = &cp
	return nil
}

func (r *memEditionRepo) GetByID(_ context.Context, id int64) (*entity.Edition, error) {
	e, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *memEditionRepo) ListByBook(_ context.Context, bookID int64) ([]*entity.Edition, error) {
	var out []*entity.Edition
	for _, e := range r.items {
		if e.BookID == bookID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memEditionRepo) SetStock(_ context.Context, editionID int64, available, total int) error {
	e, ok := r.items[editionID]
	if !ok {
		return domain.ErrNotFound
	}
	stock := entity.CopyStock{EditionID: editionID, Available: available, Total: total}
	if !stock.CoversLent(r.lent[editionID]) {
		return fmt.Errorf("%w: copias prestadas", domain.ErrConflict)
	}
	e.Available, e.Total = available, total
	return nil
}

// memCache registra las claves invalidadas.
type memCache struct{ deleted []string }

func (c *memCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (c *memCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
func (c *memCache) Delete(_ context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	return nil
}

func newTestEditionUseCase(t *testing.T) (*EditionUseCase, *memEditionRepo, *memCache, int64) {
	t.Helper()
	books := newMemBookRepo()
	book := &entity.Book{Title: "Ficciones", Author: "Borges"}
	require.NoError(t, books.Create(context.Background(), book))
	editions := newMemEditionRepo()
	cache := &memCache{}
	uc := NewEditionUseCase(editions, books, cache)
	uc.now = func() time.Time { return time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC) }
	return uc, editions, cache, book.ID
}

func TestEditionUseCase_CreateValidaciones(t *testing.T) {
	uc, _, _, bookID := newTestEditionUseCase(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		bookID int64
		in     dto.CreateEditionRequest
		want   error
	}{
		{"isbn vacío", bookID, dto.CreateEditionRequest{ISBN: "  ", PublicationYear: 1999, Copies: 1}, domain.ErrInvalidInput},
		{"isbn largo", bookID, dto.CreateEditionRequest{ISBN: strings.Repeat("9", 46), PublicationYear: 1999, Copies: 1}, domain.ErrInvalidInput},
		{"año anterior a 1400", bookID, dto.CreateEditionRequest{ISBN: "978-1", PublicationYear: 1399, Copies: 1}, domain.ErrInvalidInput},
		{"año posterior al próximo", bookID, dto.CreateEditionRequest{ISBN: "978-1", PublicationYear: 2028, Copies: 1}, domain.ErrInvalidInput},
		{"copias negativas", bookID, dto.CreateEditionRequest{ISBN: "978-1", PublicationYear: 1999, Copies: -1}, domain.ErrInvalidInput},
		{"libro inexistente", 404, dto.CreateEditionRequest{ISBN: "978-1", PublicationYear: 1999, Copies: 1}, domain.ErrNotFound},
		{"isbn de 45", bookID, dto.CreateEditionRequest{ISBN: strings.Repeat("9", 45), PublicationYear: 1400, Copies: 0}, nil},
		{"año próximo", bookID, dto.CreateEditionRequest{ISBN: "978-2", PublicationYear: 2027, Copies: 3}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := uc.Create(ctx, tc.bookID, tc.in)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.bookID, out.BookID)
			assert.Equal(t, tc.in.Copies, out.Available)
			assert.Equal(t, tc.in.Copies, out.Total)
		})
	}
}

func TestEditionUseCase_ListByBook(t *testing.T) {
	uc, _, _, bookID := newTestEditionUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, bookID, dto.CreateEditionRequest{ISBN: " 978-1 ", PublicationYear: 1944, Copies: 2})
	require.NoError(t, err)

	list, err := uc.ListByBook(ctx, bookID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "978-1", list[0].ISBN)

	_, err = uc.ListByBook(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditionUseCase_SetStock(t *testing.T) {
	uc, editions, _, bookID := newTestEditionUseCase(t)
	ctx := context.Background()
	ed, err := uc.Create(ctx, bookID, dto.CreateEditionRequest{ISBN: "978-1", PublicationYear: 1944, Copies: 3})
	require.NoError(t, err)
	// dos copias salieron en préstamos activos
	editions.lent[ed.ID] = 2
	editions.items[ed.ID].Available = 1

	cases := []struct {
		name      string
		editionID int64
		in        dto.UpdateStockRequest
		want      error
	}{
		{"disponibles negativas", ed.ID, dto.UpdateStockRequest{Available: -1, Total: 3}, domain.ErrInvalidInput},
		{"disponibles sobre el total", ed.ID, dto.UpdateStockRequest{Available: 4, Total: 3}, domain.ErrInvalidInput},
		{"edición inexistente", 404, dto.UpdateStockRequest{Available: 1, Total: 1}, domain.ErrNotFound},
		{"total no cubre lo prestado", ed.ID, dto.UpdateStockRequest{Available: 2, Total: 3}, domain.ErrConflict},
		{"total por debajo de lo prestado", ed.ID, dto.UpdateStockRequest{Available: 0, Total: 1}, domain.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.SetStock(ctx, tc.editionID, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 1, editions.items[ed.ID].Available, "un ajuste rechazado no toca el stock")
	assert.Equal(t, 3, editions.items[ed.ID].Total)

	out, err := uc.SetStock(ctx, ed.ID, dto.UpdateStockRequest{Available: 3, Total: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Available)
	assert.Equal(t, 5, out.Total)
}

func TestEditionUseCase_InvalidaDashboard(t *testing.T) {
	uc, _, cache, bookID := newTestEditionUseCase(t)
	ctx := context.Background()

	ed, err := uc.Create(ctx, bookID, dto.CreateEditionRequest{ISBN: "978-1", PublicationYear: 1944, Copies: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{ports.DashboardCacheKey}, cache.deleted)

	_, err = uc.SetStock(ctx, ed.ID, dto.UpdateStockRequest{Available: 2, Total: 2})
	require.NoError(t, err)
	assert.Len(t, cache.deleted, 2)

	_, err = uc.SetStock(ctx, ed.ID, dto.UpdateStockRequest{Available: 3, Total: 2})
	require.Error(t, err)
	assert.Len(t, cache.deleted, 2, "un ajuste inválido no invalida")
}
