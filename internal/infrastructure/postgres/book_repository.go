package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.BookRepository = (*BookRepo)(nil)

const dialectPostgres = "postgres"

// La categoría principal va primero; el resto por id.
const bookCategoryIDsExpr = `ARRAY(SELECT bc.category_id FROM book_categories bc
	WHERE bc.book_id = b.id ORDER BY (bc.category_id = b.category_id) DESC, bc.category_id)`

// BookRepo implementación de BookRepository. Los listados filtrados se arman con goqu.
type BookRepo struct {
	pool *pgxpool.Pool
}

// NewBookRepository construye el adaptador de libros.
func NewBookRepository(pool *pgxpool.Pool) *BookRepo {
	return &BookRepo{pool: pool}
}

func bookSelect() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("b.category_id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.description"),
			goqu.I("b.language"), goqu.I("b.pages"), goqu.I("b.category_id"),
			goqu.COALESCE(goqu.I("c.name"), "").As("category_name"),
			goqu.L(bookCategoryIDsExpr).As("category_ids"),
			goqu.I("b.created_at"), goqu.I("b.updated_at"),
		).
		Prepared(true)
}

// buildBookListQuery traduce el filtro a SQL parametrizado.
// autor: subcadena sin distinguir mayúsculas. categoria: id numérico o nombre exacto.
func buildBookListQuery(filter entity.BookFilter) (string, []any, error) {
	ds := bookSelect()

	if author := strings.TrimSpace(filter.Author); author != "" {
		ds = ds.Where(goqu.I("b.author").ILike("%" + escapeLike(author) + "%"))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		if id, err := strconv.ParseInt(category, 10, 64); err == nil {
			ds = ds.Where(goqu.Or(
				goqu.I("b.category_id").Eq(id),
				goqu.L(`EXISTS (SELECT 1 FROM book_categories bc WHERE bc.book_id = b.id AND bc.category_id = ?)`, id),
			))
		} else {
			ds = ds.Where(goqu.Or(
				goqu.L(`LOWER(c.name) = LOWER(?)`, category),
				goqu.L(`EXISTS (SELECT 1 FROM book_categories bc JOIN categories cc ON cc.id = bc.category_id
					WHERE bc.book_id = b.id AND LOWER(cc.name) = LOWER(?))`, category),
			))
		}
	}

	ds = ds.Order(goqu.I("b.title").Asc(), goqu.I("b.id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	return ds.ToSQL()
}

// escapeLike neutraliza los comodines de LIKE que vengan en el texto del usuario.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create inserta el libro y sus categorías en una sola transacción.
func (r *BookRepo) Create(ctx context.Context, book *entity.Book) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO books (title, author, description, language, pages, category_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`
		err := tx.QueryRow(ctx, query,
			book.Title, book.Author, book.Description, book.Language, book.Pages, book.CategoryID,
		).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: la categoría no existe", domain.ErrInvalidInput)
			}
			return fmt.Errorf("insert book: %w", err)
		}
		return replaceBookCategories(ctx, tx, book.ID, book.CategoryIDs)
	})
}

// GetByID obtiene un libro por ID. (nil, nil) si no existe.
func (r *BookRepo) GetByID(ctx context.Context, id int64) (*entity.Book, error) {
	query, args, err := bookSelect().Where(goqu.I("b.id").Eq(id)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}
	b, err := scanBook(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// List aplica los filtros de autor y categoría con paginación.
func (r *BookRepo) List(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error) {
	query, args, err := buildBookListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build book list query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()
	var list []*entity.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Update reescribe los campos y las asociaciones de categoría.
func (r *BookRepo) Update(ctx context.Context, book *entity.Book) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE books SET title = $2, author = $3, description = $4, language = $5, pages = $6,
			       category_id = $7, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`
		err := tx.QueryRow(ctx, query,
			book.ID, book.Title, book.Author, book.Description, book.Language, book.Pages, book.CategoryID,
		).Scan(&book.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: la categoría no existe", domain.ErrInvalidInput)
			}
			return fmt.Errorf("update book: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM book_categories WHERE book_id = $1`, book.ID); err != nil {
			return fmt.Errorf("clear book categories: %w", err)
		}
		return replaceBookCategories(ctx, tx, book.ID, book.CategoryIDs)
	})
}

func replaceBookCategories(ctx context.Context, tx pgx.Tx, bookID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO book_categories (book_id, category_id)
		SELECT $1, UNNEST($2::bigint[])
		ON CONFLICT DO NOTHING`, bookID, categoryIDs)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: alguna categoría no existe", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert book categories: %w", err)
	}
	return nil
}

// Delete elimina el libro con sus ediciones y copias (ON DELETE CASCADE).
func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: el libro tiene registros asociados", domain.ErrConflict)
		}
		return fmt.Errorf("delete book: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// HasActiveLoans indica si alguna edición del libro está en un préstamo Pendiente o En curso.
func (r *BookRepo) HasActiveLoans(ctx context.Context, id int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM loan_editions le
			JOIN editions e ON e.id = le.edition_id
			JOIN loans l    ON l.id = le.loan_id
			WHERE e.book_id = $1 AND l.status IN ($2, $3))`
	var busy bool
	err := r.pool.QueryRow(ctx, query, id, string(entity.LoanPending), string(entity.LoanInProgress)).Scan(&busy)
	if err != nil {
		return false, fmt.Errorf("book active loans: %w", err)
	}
	return busy, nil
}

func scanBook(row pgx.Row) (*entity.Book, error) {
	var b entity.Book
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Language, &b.Pages,
		&b.CategoryID, &b.CategoryName, &b.CategoryIDs, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
