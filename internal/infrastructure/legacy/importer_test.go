package legacy

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

type fakeSource struct{}

func (fakeSource) Users(context.Context) ([]UserRow, error) {
	return []UserRow{
		{ID: 1, CI: "1001", FirstName: " Ana ", LastName: "Pérez"},
		{ID: 2, CI: "1001", FirstName: "Ana", LastName: "Duplicada"},
		{ID: 3, CI: "  ", FirstName: "Sin", LastName: "Cédula"},
		{ID: 4, CI: "2002", FirstName: "Luis", LastName: "Gómez"},
	}, nil
}

func (fakeSource) Genres(context.Context) ([]GenreRow, error) {
	return []GenreRow{{ID: 1, Name: "Novela"}, {ID: 2, Name: "novela"}, {ID: 3, Name: "Cuento"}}, nil
}

func (fakeSource) Books(context.Context) ([]BookRow, error) {
	return []BookRow{
		{ID: 10, Title: "Ficciones", Author: "Borges", GenreIDs: []int64{3, 1}},
		{ID: 11, Title: "Anónimo", Pages: -5, GenreIDs: []int64{2, 1}},
	}, nil
}

func (fakeSource) Editions(context.Context) ([]EditionRow, error) {
	return []EditionRow{
		{ID: 100, BookID: 10, ISBN: " 978-1 ", Year: 1944, Available: 2},
		{ID: 101, BookID: 99, ISBN: "huérfana", Year: 2000, Available: 1},
	}, nil
}

func (fakeSource) Loans(context.Context) ([]LoanRow, error) {
	d := func(m time.Month, day int) time.Time { return time.Date(2024, m, day, 0, 0, 0, 0, time.UTC) }
	return []LoanRow{
		{ID: 1, UserID: 1, LoanDate: d(1, 1), DueDate: d(1, 10), Price: "12,50", RawStatus: "En_curso", EditionIDs: []int64{100}},
		{ID: 2, UserID: 2, LoanDate: d(2, 1), DueDate: d(2, 5), Price: "3", RawStatus: "Devuelto", EditionIDs: []int64{100, 101}},
		{ID: 3, UserID: 9, LoanDate: d(3, 1), DueDate: d(3, 5), Price: "1"},
		{ID: 4, UserID: 4, LoanDate: d(3, 1), DueDate: d(3, 5), Price: "1", RawStatus: "Perdido"},
		{ID: 5, UserID: 4, LoanDate: d(4, 1), DueDate: d(4, 5), Price: ""},
	}, nil
}

// memSink simula el esquema actual: ids nuevos por tabla, cédula y nombre de categoría únicos,
// y el mapa de ids antiguos.
type memSink struct {
	seq        map[string]int64
	legacy     map[string]int64
	users      map[int64]*entity.User
	cis        map[string]int64
	categories map[int64]*entity.Category
	names      map[string]int64
	books      map[int64]*entity.Book
	editions   map[int64]*entity.Edition
	loans      map[int64]*entity.Loan
}

func newMemSink() *memSink {
	return &memSink{
		seq: map[string]int64{}, legacy: map[string]int64{},
		users: map[int64]*entity.User{}, cis: map[string]int64{},
		categories: map[int64]*entity.Category{}, names: map[string]int64{},
		books: map[int64]*entity.Book{}, editions: map[int64]*entity.Edition{}, loans: map[int64]*entity.Loan{},
	}
}

func legacyKey(kind string, legacyID int64) string {
	return fmt.Sprintf("%s/%d", kind, legacyID)
}

func (s *memSink) nextID(kind string) int64 {
	s.seq[kind]++
	return s.seq[kind]
}

// newIDOf id nuevo asignado al id antiguo; 0 si no se importó.
func (s *memSink) newIDOf(kind string, legacyID int64) int64 {
	return s.legacy[legacyKey(kind, legacyID)]
}

func (s *memSink) once(kind string, legacyID int64, insert func() (int64, bool)) (int64, bool, error) {
	key := legacyKey(kind, legacyID)
	if id, ok := s.legacy[key]; ok {
		return id, false, nil
	}
	id, inserted := insert()
	s.legacy[key] = id
	return id, inserted, nil
}

// seedUser fila creada antes de importar (p. ej. por create-admin).
func (s *memSink) seedUser(u *entity.User) {
	s.users[u.ID], s.cis[u.CI] = u, u.ID
	s.seq["users"] = max(s.seq["users"], u.ID)
}

func (s *memSink) seedCategory(c *entity.Category) {
	s.categories[c.ID], s.names[strings.ToLower(c.Name)] = c, c.ID
	s.seq["categories"] = max(s.seq["categories"], c.ID)
}

func (s *memSink) seedBook(b *entity.Book) {
	s.books[b.ID] = b
	s.seq["books"] = max(s.seq["books"], b.ID)
}

func (s *memSink) ImportUser(_ context.Context, legacyID int64, u *entity.User) (int64, bool, error) {
	return s.once("users", legacyID, func() (int64, bool) {
		if id, ok := s.cis[u.CI]; ok {
			return id, false
		}
		row := *u
		row.ID = s.nextID("users")
		s.users[row.ID], s.cis[row.CI] = &row, row.ID
		return row.ID, true
	})
}

func (s *memSink) ImportCategory(_ context.Context, legacyID int64, c *entity.Category) (int64, bool, error) {
	return s.once("categories", legacyID, func() (int64, bool) {
		key := strings.ToLower(c.Name)
		if id, ok := s.names[key]; ok {
			return id, false
		}
		row := *c
		row.ID = s.nextID("categories")
		s.categories[row.ID], s.names[key] = &row, row.ID
		return row.ID, true
	})
}

func (s *memSink) ImportBook(_ context.Context, legacyID int64, b *entity.Book) (int64, bool, error) {
	return s.once("books", legacyID, func() (int64, bool) {
		row := *b
		row.ID = s.nextID("books")
		s.books[row.ID] = &row
		return row.ID, true
	})
}

func (s *memSink) ImportEdition(_ context.Context, legacyID int64, e *entity.Edition) (int64, bool, error) {
	return s.once("editions", legacyID, func() (int64, bool) {
		row := *e
		row.ID = s.nextID("editions")
		s.editions[row.ID] = &row
		return row.ID, true
	})
}

func (s *memSink) ImportLoan(_ context.Context, legacyID int64, l *entity.Loan) (int64, bool, error) {
	return s.once("loans", legacyID, func() (int64, bool) {
		row := *l
		row.ID = s.nextID("loans")
		s.loans[row.ID] = &row
		return row.ID, true
	})
}

func summaryOf(t *testing.T, sums []TableSummary, table string) TableSummary {
	t.Helper()
	for _, s := range sums {
		if s.Table == table {
			return s
		}
	}
	t.Fatalf("sin resumen para %s", table)
	return TableSummary{}
}

func TestImporter_Run(t *testing.T) {
	sink := newMemSink()
	sums, err := NewImporter(fakeSource{}, sink, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sums, 5)

	users := summaryOf(t, sums, "usuarios")
	assert.Equal(t, TableSummary{Table: "usuarios", Read: 4, Inserted: 2, Skipped: 2}, users)
	ana := sink.users[sink.newIDOf("users", 1)]
	require.NotNil(t, ana)
	assert.Equal(t, "Ana", ana.FirstName)
	assert.Empty(t, ana.PasswordHash)
	assert.Equal(t, entity.RoleUser, ana.Role)

	cats := summaryOf(t, sums, "categorias")
	assert.Equal(t, 2, cats.Inserted)
	novela, cuento := sink.newIDOf("categories", 1), sink.newIDOf("categories", 3)
	assert.Equal(t, novela, sink.newIDOf("categories", 2), "mismo nombre, misma categoría")

	// Ficciones: géneros [3, 1] => principal Cuento.
	ficciones := sink.books[sink.newIDOf("books", 10)]
	require.NotNil(t, ficciones)
	require.NotNil(t, ficciones.CategoryID)
	assert.Equal(t, cuento, *ficciones.CategoryID)
	assert.Equal(t, []int64{cuento, novela}, ficciones.CategoryIDs)

	// Anónimo: géneros 2 y 1 son la misma categoría por nombre.
	anon := sink.books[sink.newIDOf("books", 11)]
	require.NotNil(t, anon)
	assert.Equal(t, UnknownAuthor, anon.Author)
	assert.Equal(t, 0, anon.Pages)
	assert.Equal(t, []int64{novela}, anon.CategoryIDs)

	eds := summaryOf(t, sums, "ediciones")
	assert.Equal(t, TableSummary{Table: "ediciones", Read: 2, Inserted: 1, Skipped: 1}, eds)
	edID := sink.newIDOf("editions", 100)
	ed := sink.editions[edID]
	require.NotNil(t, ed)
	assert.Equal(t, ficciones.ID, ed.BookID)
	assert.Equal(t, "978-1", ed.ISBN)
	assert.Equal(t, 2, ed.Available)
	assert.Equal(t, 3, ed.Total, "una copia sigue prestada en el préstamo 1")
	assert.Zero(t, sink.newIDOf("editions", 101))

	loans := summaryOf(t, sums, "prestamos")
	assert.Equal(t, TableSummary{Table: "prestamos", Read: 5, Inserted: 3, Skipped: 2}, loans)
	first := sink.loans[sink.newIDOf("loans", 1)]
	require.NotNil(t, first)
	assert.Equal(t, entity.LoanInProgress, first.Status)
	assert.True(t, decimal.RequireFromString("12.5").Equal(first.RentalPrice))

	// El usuario 2 era un duplicado de cédula: su préstamo pasa a la fila del usuario 1.
	returned := sink.loans[sink.newIDOf("loans", 2)]
	require.NotNil(t, returned)
	assert.Equal(t, ana.ID, returned.UserID)
	assert.Equal(t, entity.LoanReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, returned.DueDate, *returned.ReturnedAt)
	assert.Equal(t, []int64{edID}, returned.EditionIDs)

	pending := sink.loans[sink.newIDOf("loans", 5)]
	require.NotNil(t, pending)
	assert.Equal(t, entity.LoanPending, pending.Status)
	assert.True(t, pending.RentalPrice.IsZero())
}

func TestImporter_NoReasignaFilasExistentes(t *testing.T) {
	sink := newMemSink()
	sink.seedUser(&entity.User{ID: 1, CI: "ADMIN-999", Role: entity.RoleAdmin, FirstName: "Admin"})
	sink.seedCategory(&entity.Category{ID: 1, Name: "Ensayo"})
	sink.seedBook(&entity.Book{ID: 10, Title: "Manual interno", Author: "Biblioteca"})

	_, err := NewImporter(fakeSource{}, sink, nil).Run(context.Background())
	require.NoError(t, err)

	admin := sink.users[1]
	assert.Equal(t, "ADMIN-999", admin.CI)
	assert.Equal(t, entity.RoleAdmin, admin.Role)

	anaID := sink.newIDOf("users", 1)
	require.NotZero(t, anaID)
	assert.NotEqual(t, int64(1), anaID)
	assert.Equal(t, "1001", sink.users[anaID].CI)
	assert.Equal(t, anaID, sink.newIDOf("users", 2), "misma cédula, misma fila")

	first := sink.loans[sink.newIDOf("loans", 1)]
	require.NotNil(t, first)
	assert.Equal(t, anaID, first.UserID, "el préstamo no pasa al administrador")
	for _, l := range sink.loans {
		assert.NotEqual(t, int64(1), l.UserID)
	}

	assert.Equal(t, "Manual interno", sink.books[10].Title)
	ficcionesID := sink.newIDOf("books", 10)
	assert.NotEqual(t, int64(10), ficcionesID)
	assert.Equal(t, "Ficciones", sink.books[ficcionesID].Title)
	assert.NotContains(t, sink.books[ficcionesID].CategoryIDs, int64(1))

	ed := sink.editions[sink.newIDOf("editions", 100)]
	require.NotNil(t, ed)
	assert.Equal(t, ficcionesID, ed.BookID)
}

func TestImporter_Idempotente(t *testing.T) {
	sink := newMemSink()
	ctx := context.Background()
	_, err := NewImporter(fakeSource{}, sink, nil).Run(ctx)
	require.NoError(t, err)

	sums, err := NewImporter(fakeSource{}, sink, nil).Run(ctx)
	require.NoError(t, err)
	for _, s := range sums {
		assert.Zero(t, s.Inserted, s.Table)
	}
	assert.Len(t, sink.users, 2)
	assert.Len(t, sink.books, 2)
	assert.Len(t, sink.editions, 1)
	assert.Len(t, sink.loans, 3)
}

func TestParsePrice(t *testing.T) {
	cases := map[string]string{"12.50": "12.5", "12,5": "12.5", "$ 7": "7", "": "0", "3.456": "3.46"}
	for raw, want := range cases {
		got, err := parsePrice(raw)
		require.NoError(t, err, raw)
		assert.True(t, decimal.RequireFromString(want).Equal(got), "%s => %s", raw, got)
	}
	_, err := parsePrice("gratis")
	assert.Error(t, err)
	_, err = parsePrice("-1")
	assert.Error(t, err)
}

func TestDecodeLatin1(t *testing.T) {
	assert.Equal(t, "Güemes", DecodeLatin1("G\xfcemes"))
	assert.Equal(t, "plain", DecodeLatin1("plain"))
}
