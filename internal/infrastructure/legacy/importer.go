package legacy

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

// UnknownAuthor autor de los libros antiguos sin autor asociado.
const UnknownAuthor = "Desconocido"

// Source tablas del esquema antiguo.
type Source interface {
	Users(ctx context.Context) ([]UserRow, error)
	Genres(ctx context.Context) ([]GenreRow, error)
	Books(ctx context.Context) ([]BookRow, error)
	Editions(ctx context.Context) ([]EditionRow, error)
	Loans(ctx context.Context) ([]LoanRow, error)
}

// Sink destino en el esquema actual. Cada alta recibe el id antiguo y devuelve el id nuevo
// de la fila; los ids antiguos nunca se escriben como claves primarias. Un id antiguo ya
// importado devuelve la misma fila con inserted=false.
type Sink interface {
	// ImportUser deduplica por cédula: si ya existe devuelve esa fila.
	ImportUser(ctx context.Context, legacyID int64, u *entity.User) (id int64, inserted bool, err error)
	// ImportCategory deduplica por nombre sin distinguir mayúsculas.
	ImportCategory(ctx context.Context, legacyID int64, c *entity.Category) (id int64, inserted bool, err error)
	ImportBook(ctx context.Context, legacyID int64, b *entity.Book) (id int64, inserted bool, err error)
	ImportEdition(ctx context.Context, legacyID int64, e *entity.Edition) (id int64, inserted bool, err error)
	ImportLoan(ctx context.Context, legacyID int64, l *entity.Loan) (id int64, inserted bool, err error)
}

// TableSummary conteo por tabla.
type TableSummary struct {
	Table    string
	Read     int
	Inserted int
	Skipped  int
}

func (s TableSummary) String() string {
	return fmt.Sprintf("%-10s leídos=%d insertados=%d omitidos=%d", s.Table, s.Read, s.Inserted, s.Skipped)
}

// Importer vuelca el esquema antiguo al actual. Es idempotente: repetirlo solo omite filas.
type Importer struct {
	src  Source
	dst  Sink
	log  *logger.Logger
	done []TableSummary

	// id antiguo -> id nuevo
	users      map[int64]int64
	categories map[int64]int64
	books      map[int64]int64
	editions   map[int64]int64
	loans      []LoanRow
}

// NewImporter construye el importador. log puede ser nil.
func NewImporter(src Source, dst Sink, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{
		src:        src,
		dst:        dst,
		log:        log.Component("legacy"),
		users:      map[int64]int64{},
		categories: map[int64]int64{},
		books:      map[int64]int64{},
		editions:   map[int64]int64{},
	}
}

// Run importa en orden de dependencias: usuarios, categorías, libros, ediciones y préstamos.
func (im *Importer) Run(ctx context.Context) ([]TableSummary, error) {
	steps := []func(context.Context) error{
		im.importUsers, im.importCategories, im.importBooks, im.importEditions, im.importLoans,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return im.done, err
		}
	}
	return im.done, nil
}

func (im *Importer) importUsers(ctx context.Context) error {
	rows, err := im.src.Users(ctx)
	if err != nil {
		return err
	}
	sum := TableSummary{Table: "usuarios", Read: len(rows)}
	for _, r := range rows {
		ci := strings.TrimSpace(r.CI)
		if ci == "" {
			sum.Skipped++
			continue
		}
		u := &entity.User{
			CI:        ci,
			Role:      entity.RoleUser,
			FirstName: strings.TrimSpace(r.FirstName),
			LastName:  strings.TrimSpace(r.LastName),
			Phone:     strings.TrimSpace(r.Phone),
			Address:   strings.TrimSpace(r.Address),
		}
		id, inserted, err := im.dst.ImportUser(ctx, r.ID, u)
		if err != nil {
			return fmt.Errorf("usuario %d: %w", r.ID, err)
		}
		im.users[r.ID] = id
		count(&sum, inserted)
	}
	im.finish(sum)
	return nil
}

func (im *Importer) importCategories(ctx context.Context) error {
	rows, err := im.src.Genres(ctx)
	if err != nil {
		return err
	}
	sum := TableSummary{Table: "categorias", Read: len(rows)}
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			sum.Skipped++
			continue
		}
		id, inserted, err := im.dst.ImportCategory(ctx, r.ID, &entity.Category{Name: name})
		if err != nil {
			return fmt.Errorf("genero %d: %w", r.ID, err)
		}
		im.categories[r.ID] = id
		count(&sum, inserted)
	}
	im.finish(sum)
	return nil
}

func (im *Importer) importBooks(ctx context.Context) error {
	rows, err := im.src.Books(ctx)
	if err != nil {
		return err
	}
	sum := TableSummary{Table: "libros", Read: len(rows)}
	for _, r := range rows {
		b := mapBook(r, im.categories)
		id, inserted, err := im.dst.ImportBook(ctx, r.ID, b)
		if err != nil {
			return fmt.Errorf("libro %d: %w", r.ID, err)
		}
		im.books[r.ID] = id
		count(&sum, inserted)
	}
	im.finish(sum)
	return nil
}

// mapBook primer género importado como categoría principal; el resto como secundarias.
func mapBook(r BookRow, categories map[int64]int64) *entity.Book {
	author := strings.TrimSpace(r.Author)
	if author == "" {
		author = UnknownAuthor
	}
	b := &entity.Book{
		Title:       strings.TrimSpace(r.Title),
		Author:      author,
		Description: r.Description,
		Language:    strings.TrimSpace(r.Language),
		Pages:       max(r.Pages, 0),
	}
	seen := map[int64]bool{}
	for _, g := range r.GenreIDs {
		id, ok := categories[g]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if b.CategoryID == nil {
			primary := id
			b.CategoryID = &primary
		}
		b.CategoryIDs = append(b.CategoryIDs, id)
	}
	return b
}

func (im *Importer) importEditions(ctx context.Context) error {
	rows, err := im.src.Editions(ctx)
	if err != nil {
		return err
	}
	if im.loans, err = im.src.Loans(ctx); err != nil {
		return err
	}
	onLoan := activeByEdition(im.loans)

	sum := TableSummary{Table: "ediciones", Read: len(rows)}
	for _, r := range rows {
		bookID, ok := im.books[r.BookID]
		if !ok {
			sum.Skipped++
			continue
		}
		e := mapEdition(r, bookID, onLoan[r.ID])
		id, inserted, err := im.dst.ImportEdition(ctx, r.ID, e)
		if err != nil {
			return fmt.Errorf("edicion %d: %w", r.ID, err)
		}
		im.editions[r.ID] = id
		count(&sum, inserted)
	}
	im.finish(sum)
	return nil
}

// mapEdition el esquema antiguo solo guarda disponibles: el total suma las copias prestadas.
func mapEdition(r EditionRow, bookID int64, lent int) *entity.Edition {
	available := max(r.Available, 0)
	return &entity.Edition{
		BookID:          bookID,
		ISBN:            strings.TrimSpace(r.ISBN),
		PublicationYear: r.Year,
		Available:       available,
		Total:           available + lent,
	}
}

func activeByEdition(loans []LoanRow) map[int64]int {
	out := map[int64]int{}
	for _, l := range loans {
		st, err := normalizeStatus(l.RawStatus)
		if err != nil || !st.IsActive() {
			continue
		}
		for _, e := range l.EditionIDs {
			out[e]++
		}
	}
	return out
}

func (im *Importer) importLoans(ctx context.Context) error {
	rows := im.loans
	sum := TableSummary{Table: "prestamos", Read: len(rows)}
	for _, r := range rows {
		userID, ok := im.users[r.UserID]
		if !ok {
			im.log.Warn().Int64("prestamo", r.ID).Int64("usuario", r.UserID).Msg("préstamo sin usuario importado")
			sum.Skipped++
			continue
		}
		l, err := mapLoan(r, userID, im.editions)
		if err != nil {
			im.log.Warn().Err(err).Int64("prestamo", r.ID).Msg("préstamo omitido")
			sum.Skipped++
			continue
		}
		_, inserted, err := im.dst.ImportLoan(ctx, r.ID, l)
		if err != nil {
			return fmt.Errorf("prestamo %d: %w", r.ID, err)
		}
		count(&sum, inserted)
	}
	im.finish(sum)
	return nil
}

// mapLoan normaliza estado y precio y traduce las ediciones a ids nuevos. Un préstamo devuelto
// toma la fecha de devolución como fecha de entrega, que el esquema antiguo no guardaba.
func mapLoan(r LoanRow, userID int64, editions map[int64]int64) (*entity.Loan, error) {
	st, err := normalizeStatus(r.RawStatus)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(r.Price)
	if err != nil {
		return nil, err
	}
	due := r.DueDate
	if due.Before(r.LoanDate) {
		due = r.LoanDate
	}
	l := &entity.Loan{
		UserID:      userID,
		LoanDate:    r.LoanDate,
		DueDate:     due,
		RentalPrice: price,
		Status:      st,
	}
	for _, e := range r.EditionIDs {
		if id, ok := editions[e]; ok {
			l.EditionIDs = append(l.EditionIDs, id)
		}
	}
	if st == entity.LoanReturned {
		returned := due
		l.ReturnedAt = &returned
	}
	return l, nil
}

// normalizeStatus sin estado registrado el préstamo se considera Pendiente.
func normalizeStatus(raw string) (entity.LoanStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return entity.LoanPending, nil
	}
	return entity.ParseLoanStatus(raw)
}

// parsePrice acepta "12.50", "12,50" y "$ 12.50"; vacío es 0.
func parsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("precio inválido %q", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("precio negativo %q", raw)
	}
	return d.Round(2), nil
}

func count(s *TableSummary, inserted bool) {
	if inserted {
		s.Inserted++
	} else {
		s.Skipped++
	}
}

func (im *Importer) finish(s TableSummary) {
	im.log.Info().Str("tabla", s.Table).Int("leidos", s.Read).Int("insertados", s.Inserted).
		Int("omitidos", s.Skipped).Msg("importación")
	im.done = append(im.done, s)
}
