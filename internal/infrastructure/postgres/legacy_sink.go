package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/infrastructure/legacy"
)

var _ legacy.Sink = (*LegacySink)(nil)

// Claves de legacy_import_map.
const (
	legacyUsers      = "users"
	legacyCategories = "categories"
	legacyBooks      = "books"
	legacyEditions   = "editions"
	legacyLoans      = "loans"
)

// LegacySink escribe las filas importadas con ids nuevos del BIGSERIAL.
// legacy_import_map guarda id antiguo -> id nuevo; repetir la importación devuelve la fila ya creada.
type LegacySink struct {
	pool *pgxpool.Pool
}

func NewLegacySink(pool *pgxpool.Pool) *LegacySink {
	return &LegacySink{pool: pool}
}

// importOnce resuelve legacyID en el mapa; si no estaba ejecuta insert y registra el id resultante.
func (s *LegacySink) importOnce(
	ctx context.Context, kind string, legacyID int64,
	insert func(tx pgx.Tx) (int64, bool, error),
) (int64, bool, error) {
	var (
		id       int64
		inserted bool
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT new_id FROM legacy_import_map WHERE entity = $1 AND legacy_id = $2`, kind, legacyID,
		).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lookup legacy %s: %w", kind, err)
		}
		if id, inserted, err = insert(tx); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO legacy_import_map (entity, legacy_id, new_id) VALUES ($1, $2, $3)`, kind, legacyID, id)
		if err != nil {
			return fmt.Errorf("record legacy %s: %w", kind, err)
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return id, inserted, nil
}

// ImportUser si la cédula ya existe devuelve el id de esa fila; el id antiguo nunca se reutiliza.
func (s *LegacySink) ImportUser(ctx context.Context, legacyID int64, u *entity.User) (int64, bool, error) {
	return s.importOnce(ctx, legacyUsers, legacyID, func(tx pgx.Tx) (int64, bool, error) {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE ci = $1`, u.CI).Scan(&id)
		if err == nil {
			return id, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, false, fmt.Errorf("lookup user by ci: %w", err)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO users (ci, password_hash, role, first_name, last_name, phone, address)
			VALUES ($1, '', $2, $3, $4, $5, $6)
			RETURNING id`,
			u.CI, string(u.Role), u.FirstName, u.LastName, u.Phone, u.Address,
		).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("import user: %w", err)
		}
		return id, true, nil
	})
}

// ImportCategory si el nombre ya existe (sin distinguir mayúsculas) devuelve esa categoría.
func (s *LegacySink) ImportCategory(ctx context.Context, legacyID int64, c *entity.Category) (int64, bool, error) {
	return s.importOnce(ctx, legacyCategories, legacyID, func(tx pgx.Tx) (int64, bool, error) {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM categories WHERE LOWER(name) = LOWER($1) LIMIT 1`, c.Name).Scan(&id)
		if err == nil {
			return id, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, false, fmt.Errorf("lookup category: %w", err)
		}
		if err := tx.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&id); err != nil {
			return 0, false, fmt.Errorf("import category: %w", err)
		}
		return id, true, nil
	})
}

// ImportBook b.CategoryID y b.CategoryIDs ya vienen traducidos a ids nuevos.
func (s *LegacySink) ImportBook(ctx context.Context, legacyID int64, b *entity.Book) (int64, bool, error) {
	return s.importOnce(ctx, legacyBooks, legacyID, func(tx pgx.Tx) (int64, bool, error) {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO books (title, author, description, language, pages, category_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			b.Title, b.Author, b.Description, b.Language, b.Pages, b.CategoryID,
		).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("import book: %w", err)
		}
		if err := replaceBookCategories(ctx, tx, id, b.CategoryIDs); err != nil {
			return 0, false, err
		}
		return id, true, nil
	})
}

// ImportEdition e.BookID es el id nuevo del libro.
func (s *LegacySink) ImportEdition(ctx context.Context, legacyID int64, e *entity.Edition) (int64, bool, error) {
	return s.importOnce(ctx, legacyEditions, legacyID, func(tx pgx.Tx) (int64, bool, error) {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO editions (book_id, isbn, publication_year) VALUES ($1, $2, $3) RETURNING id`,
			e.BookID, e.ISBN, e.PublicationYear,
		).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("import edition: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO copies (edition_id, available, total) VALUES ($1, $2, $3)`,
			id, e.Available, e.Total); err != nil {
			return 0, false, fmt.Errorf("import copies: %w", err)
		}
		return id, true, nil
	})
}

// ImportLoan l.UserID y l.EditionIDs son ids nuevos.
func (s *LegacySink) ImportLoan(ctx context.Context, legacyID int64, l *entity.Loan) (int64, bool, error) {
	return s.importOnce(ctx, legacyLoans, legacyID, func(tx pgx.Tx) (int64, bool, error) {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO loans (user_id, loan_date, due_date, returned_at, rental_price, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			l.UserID, l.LoanDate, l.DueDate, l.ReturnedAt, l.RentalPrice, string(l.Status),
		).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("import loan: %w", err)
		}
		if len(l.EditionIDs) > 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO loan_editions (loan_id, edition_id)
				SELECT $1, UNNEST($2::bigint[]) ON CONFLICT DO NOTHING`, id, l.EditionIDs)
			if err != nil {
				return 0, false, fmt.Errorf("import loan editions: %w", err)
			}
		}
		return id, true, nil
	})
}
