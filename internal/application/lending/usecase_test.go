package lending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/internal/application/dto"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

// memStore simula la BD: RunLoan trabaja sobre una copia y solo la confirma si fn no falla.
type memStore struct {
	stock  map[int64]*entity.CopyStock
	loans  map[int64]*entity.Loan
	nextID int64
}

func (s *memStore) clone() *memStore {
	c := &memStore{stock: map[int64]*entity.CopyStock{}, loans: map[int64]*entity.Loan{}, nextID: s.nextID}
	for k, v := range s.stock {
		cp := *v
		c.stock[k] = &cp
	}
	for k, v := range s.loans {
		cp := *v
		c.loans[k] = &cp
	}
	return c
}

type memTx struct{ store *memStore }

func (m *memTx) RunLoan(_ context.Context, fn func(repository.LoanRepository, repository.CopyStockRepository) error) error {
	work := m.store.clone()
	if err := fn(&memLoanRepo{work}, &memStockRepo{work}); err != nil {
		return err // rollback
	}
	*m.store = *work
	return nil
}

type memStockRepo struct{ s *memStore }

func (r *memStockRepo) GetForUpdate(_ context.Context, editionID int64) (*entity.CopyStock, error) {
	st, ok := r.s.stock[editionID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (r *memStockRepo) Adjust(_ context.Context, editionID int64, delta int) error {
	st, ok := r.s.stock[editionID]
	if !ok {
		return domain.ErrNotFound
	}
	st.Available += delta
	if !st.Valid() {
		return domain.ErrConflict
	}
	return nil
}

type memLoanRepo struct{ s *memStore }

func (r *memLoanRepo) Create(_ context.Context, l *entity.Loan) error {
	r.s.nextID++
	l.ID = r.s.nextID
	cp := *l
	r.s.loans[l.ID] = &cp
	return nil
}

func (r *memLoanRepo) GetByID(_ context.Context, id int64) (*entity.Loan, error) {
	l, ok := r.s.loans[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *memLoanRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *memLoanRepo) List(_ context.Context, f entity.LoanFilter) ([]*entity.Loan, error) {
	var out []*entity.Loan
	for _, l := range r.s.loans {
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		if f.UserID != nil && l.UserID != *f.UserID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *memLoanRepo) UpdateStatus(_ context.Context, id int64, st entity.LoanStatus, returnedAt *time.Time) error {
	l, ok := r.s.loans[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Status = st
	l.ReturnedAt = returnedAt
	return nil
}

type stubUsers struct{ ids map[int64]bool }

func (u *stubUsers) Create(context.Context, *entity.User) error { return nil }
func (u *stubUsers) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if !u.ids[id] {
		return nil, nil
	}
	return &entity.User{ID: id, Role: entity.RoleUser}, nil
}
func (u *stubUsers) GetByCI(context.Context, string) (*entity.User, error) { return nil, nil }
func (u *stubUsers) List(context.Context, int, int) ([]*entity.User, error) { return nil, nil }
func (u *stubUsers) UpdateRole(context.Context, int64, entity.Role) error { return nil }
func (u *stubUsers) UpdatePassword(context.Context, int64, string) error { return nil }

type recordingPublisher struct {
	events []ports.LoanEvent
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev ports.LoanEvent) error {
	p.events = append(p.events, ev)
	if p.fail {
		return errors.New("broker caído")
	}
	return nil
}
func (p *recordingPublisher) Close() error { return nil }

type countingCache struct{ deletes int }

func (c *countingCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (c *countingCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
func (c *countingCache) Delete(context.Context, string) error {
	c.deletes++
	return nil
}

func newTestLoanUseCase() (*LoanUseCase, *memStore, *recordingPublisher, *countingCache) {
	store := &memStore{
		stock: map[int64]*entity.CopyStock{
			10: {EditionID: 10, Available: 1, Total: 1},
			20: {EditionID: 20, Available: 2, Total: 2},
		},
		loans: map[int64]*entity.Loan{},
	}
	pub := &recordingPublisher{}
	cache := &countingCache{}
	uc := NewLoanUseCase(&memTx{store}, &memLoanRepo{store}, &stubUsers{ids: map[int64]bool{7: true}}, pub, cache, nil)
	uc.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return uc, store, pub, cache
}

func TestCreate_ReservaCopiasYPublica(t *testing.T) {
	uc, store, pub, cache := newTestLoanUseCase()
	ctx := context.Background()

	out, err := uc.Create(ctx, dto.CreateLoanRequest{
		UserID:      7,
		EditionIDs:  []int64{20, 10},
		DueDate:     "2026-05-18",
		RentalPrice: decimal.RequireFromString("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pendiente", out.Status)
	assert.Equal(t, "2026-05-04", out.LoanDate)
	assert.Equal(t, []int64{10, 20}, out.EditionIDs)
	assert.Equal(t, 0, store.stock[10].Available)
	assert.Equal(t, 1, store.stock[20].Available)
	require.Len(t, pub.events, 1)
	assert.Equal(t, ports.EventLoanCreated, pub.events[0].Type)
	assert.Equal(t, 1, cache.deletes)
}

func TestCreate_SinCopiasHaceRollback(t *testing.T) {
	uc, store, pub, _ := newTestLoanUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{10}, DueDate: "2026-05-10"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{20, 10}, DueDate: "2026-05-10"})
	assert.ErrorIs(t, err, domain.ErrNoCopiesAvailable)
	assert.Equal(t, 2, store.stock[20].Available, "la reserva de la edición 20 se revierte")
	assert.Len(t, store.loans, 1)
	assert.Len(t, pub.events, 1)
}

func TestCreate_Validaciones(t *testing.T) {
	uc, _, _, _ := newTestLoanUseCase()
	ctx := context.Background()
	cases := map[string]dto.CreateLoanRequest{
		"sin ediciones":       {UserID: 7, DueDate: "2026-05-10"},
		"fecha inválida":      {UserID: 7, EditionIDs: []int64{10}, DueDate: "10/05/2026"},
		"vence antes":         {UserID: 7, EditionIDs: []int64{10}, LoanDate: "2026-05-10", DueDate: "2026-05-01"},
		"precio negativo":     {UserID: 7, EditionIDs: []int64{10}, DueDate: "2026-05-10", RentalPrice: decimal.NewFromInt(-1)},
		"edición inexistente": {UserID: 7, EditionIDs: []int64{99}, DueDate: "2026-05-10"},
		"edición repetida":    {UserID: 7, EditionIDs: []int64{20, 10, 20}, DueDate: "2026-05-10"},
		"edición cero":        {UserID: 7, EditionIDs: []int64{10, 0}, DueDate: "2026-05-10"},
		"edición negativa":    {UserID: 7, EditionIDs: []int64{-20}, DueDate: "2026-05-10"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(ctx, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := uc.Create(ctx, dto.CreateLoanRequest{UserID: 99, EditionIDs: []int64{10}, DueDate: "2026-05-10"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreate_EdicionesInvalidasNoReservan(t *testing.T) {
	uc, store, pub, _ := newTestLoanUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{20, 20}, DueDate: "2026-05-10"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "repetida")

	_, err = uc.Create(ctx, dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{10, -1}, DueDate: "2026-05-10"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 1, store.stock[10].Available)
	assert.Equal(t, 2, store.stock[20].Available)
	assert.Empty(t, store.loans)
	assert.Empty(t, pub.events)
}

func TestCicloDeVida_IniciarYDevolver(t *testing.T) {
	uc, store, pub, _ := newTestLoanUseCase()
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{10}, DueDate: "2026-05-10"})
	require.NoError(t, err)

	started, err := uc.Start(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "En curso", started.Status)

	_, err = uc.Start(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	returned, err := uc.Return(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Devuelto", returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, 1, store.stock[10].Available, "la copia vuelve al stock")

	_, err = uc.Return(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = uc.Start(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	types := make([]string, 0, len(pub.events))
	for _, ev := range pub.events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{ports.EventLoanCreated, ports.EventLoanStarted, ports.EventLoanReturned}, types)
}

func TestPublicacionFallidaNoRevierte(t *testing.T) {
	uc, store, pub, _ := newTestLoanUseCase()
	pub.fail = true

	out, err := uc.Create(context.Background(), dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{10}, DueDate: "2026-05-10"})
	require.NoError(t, err)
	assert.NotZero(t, out.ID)
	assert.Len(t, store.loans, 1)
}

func TestGet_SoloPropietarioOAdmin(t *testing.T) {
	uc, _, _, _ := newTestLoanUseCase()
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{10}, DueDate: "2026-05-10"})
	require.NoError(t, err)

	_, err = uc.Get(ctx, created.ID, 8, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := uc.Get(ctx, created.ID, 7, false)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	got, err = uc.Get(ctx, 999, 1, true)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestList_FiltraPorEstadoConGrafiaHistorica(t *testing.T) {
	uc, _, _, _ := newTestLoanUseCase()
	ctx := context.Background()
	a, err := uc.Create(ctx, dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{10}, DueDate: "2026-05-10"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateLoanRequest{UserID: 7, EditionIDs: []int64{20}, DueDate: "2026-05-10"})
	require.NoError(t, err)
	_, err = uc.Start(ctx, a.ID)
	require.NoError(t, err)

	list, err := uc.List(ctx, dto.LoanListQuery{Status: "En_curso"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	_, err = uc.List(ctx, dto.LoanListQuery{Status: "perdido"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	mine, err := uc.ListByUser(ctx, 7, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
