package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var (
	_ repository.EditionRepository   = (*EditionRepo)(nil)
	_ repository.CopyStockRepository = (*CopyStockRepo)(nil)
)

const editionSelect = `
	SELECT e.id, e.book_id, e.isbn, e.publication_year,
	       COALESCE(cp.available, 0), COALESCE(cp.total, 0)
	FROM editions e
	LEFT JOIN copies cp ON cp.edition_id = e.id`

// EditionRepo ediciones con su fila de copias.
type EditionRepo struct {
	pool *pgxpool.Pool
}

func NewEditionRepository(pool *pgxpool.Pool) *EditionRepo {
	return &EditionRepo{pool: pool}
}

// Create inserta la edición y su fila de copias en la misma transacción.
func (r *EditionRepo) Create(ctx context.Context, edition *entity.Edition, copies int) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO editions (book_id, isbn, publication_year) VALUES ($1, $2, $3) RETURNING id`,
			edition.BookID, edition.ISBN, edition.PublicationYear,
		).Scan(&edition.ID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("insert edition: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO copies (edition_id, available, total) VALUES ($1, $2, $2)`, edition.ID, copies,
		); err != nil {
			return fmt.Errorf("insert copies: %w", err)
		}
		edition.Available, edition.Total = copies, copies
		return nil
	})
}

func (r *EditionRepo) GetByID(ctx context.Context, id int64) (*entity.Edition, error) {
	var e entity.Edition
	err := r.pool.QueryRow(ctx, editionSelect+` WHERE e.id = $1`, id).Scan(
		&e.ID, &e.BookID, &e.ISBN, &e.PublicationYear, &e.Available, &e.Total,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get edition: %w", err)
	}
	return &e, nil
}

// ListByBook ediciones del libro, más recientes primero.
func (r *EditionRepo) ListByBook(ctx context.Context, bookID int64) ([]*entity.Edition, error) {
	rows, err := r.pool.Query(ctx, editionSelect+` WHERE e.book_id = $1 ORDER BY e.publication_year DESC, e.id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Edition
	for rows.Next() {
		var e entity.Edition
		if err := rows.Scan(&e.ID, &e.BookID, &e.ISBN, &e.PublicationYear, &e.Available, &e.Total); err != nil {
			return nil, fmt.Errorf("scan edition: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// SetStock fija disponibles y totales; crea la fila de copias si la edición no la tenía.
// Con la fila bloqueada cuenta las copias retenidas por préstamos activos: si disponibles más
// prestadas supera el total devuelve ErrConflict.
func (r *EditionRepo) SetStock(ctx context.Context, editionID int64, available, total int) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := NewCopyStockRepository(tx).GetForUpdate(ctx, editionID); err != nil {
			return err
		}
		lent, err := lentCopies(ctx, tx, editionID)
		if err != nil {
			return err
		}
		stock := entity.CopyStock{EditionID: editionID, Available: available, Total: total}
		if !stock.CoversLent(lent) {
			return fmt.Errorf("%w: %d disponibles + %d prestadas superan el total %d",
				domain.ErrConflict, available, lent, total)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO copies (edition_id, available, total) VALUES ($1, $2, $3)
			ON CONFLICT (edition_id) DO UPDATE SET available = EXCLUDED.available, total = EXCLUDED.total`,
			editionID, available, total)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("set edition stock: %w", err)
		}
		return nil
	})
}

// lentCopies copias de la edición retenidas por préstamos Pendiente o En curso.
func lentCopies(ctx context.Context, q Querier, editionID int64) (int, error) {
	active := []string{string(entity.LoanPending), string(entity.LoanInProgress)}
	var lent int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM loan_editions le
		JOIN loans l ON l.id = le.loan_id
		WHERE le.edition_id = $1 AND l.status = ANY($2)`, editionID, active,
	).Scan(&lent)
	if err != nil {
		return 0, fmt.Errorf("count lent copies: %w", err)
	}
	return lent, nil
}

// CopyStockRepo stock de copias dentro de la transacción del préstamo.
type CopyStockRepo struct {
	q Querier
}

// NewCopyStockRepository acepta pool o tx.
func NewCopyStockRepository(q Querier) *CopyStockRepo {
	return &CopyStockRepo{q: q}
}

// GetForUpdate bloquea la fila de copias de la edición. (nil, nil) si no existe.
func (r *CopyStockRepo) GetForUpdate(ctx context.Context, editionID int64) (*entity.CopyStock, error) {
	var s entity.CopyStock
	err := r.q.QueryRow(ctx,
		`SELECT id, edition_id, available, total FROM copies WHERE edition_id = $1 FOR UPDATE`, editionID,
	).Scan(&s.ID, &s.EditionID, &s.Available, &s.Total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock copies: %w", err)
	}
	return &s, nil
}

// Adjust suma delta a las disponibles. El CHECK de la tabla impide bajar de 0 o superar el total.
func (r *CopyStockRepo) Adjust(ctx context.Context, editionID int64, delta int) error {
	cmd, err := r.q.Exec(ctx, `UPDATE copies SET available = available + $2 WHERE edition_id = $1`, editionID, delta)
	if err != nil {
		return fmt.Errorf("adjust copies: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: la edición %d no tiene copias registradas", domain.ErrInvalidInput, editionID)
	}
	return nil
}
