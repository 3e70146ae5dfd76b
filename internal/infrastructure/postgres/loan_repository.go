package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.LoanRepository = (*LoanRepo)(nil)

// LoanRepo préstamos y sus ediciones (usable con pool o tx).
type LoanRepo struct {
	q Querier
}

// NewLoanRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLoanRepository(q Querier) *LoanRepo {
	return &LoanRepo{q: q}
}

func loanSelect() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(goqu.T("loans").As("l")).
		Select(
			goqu.I("l.id"), goqu.I("l.user_id"), goqu.I("l.loan_date"), goqu.I("l.due_date"),
			goqu.I("l.returned_at"), goqu.I("l.rental_price"), goqu.I("l.status"), goqu.I("l.created_at"),
			goqu.L(`ARRAY(SELECT le.edition_id FROM loan_editions le WHERE le.loan_id = l.id ORDER BY le.edition_id)`).
				As("edition_ids"),
		).
		Prepared(true)
}

// buildLoanListQuery filtra por estado canónico y/o usuario; más recientes primero.
func buildLoanListQuery(filter entity.LoanFilter) (string, []any, error) {
	ds := loanSelect()
	if filter.Status != nil {
		ds = ds.Where(goqu.I("l.status").Eq(string(*filter.Status)))
	}
	if filter.UserID != nil {
		ds = ds.Where(goqu.I("l.user_id").Eq(*filter.UserID))
	}
	ds = ds.Order(goqu.I("l.loan_date").Desc(), goqu.I("l.id").Desc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	return ds.ToSQL()
}

// Create inserta el préstamo y sus filas en loan_editions.
func (r *LoanRepo) Create(ctx context.Context, loan *entity.Loan) error {
	query := `
		INSERT INTO loans (user_id, loan_date, due_date, rental_price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		loan.UserID, loan.LoanDate, loan.DueDate, loan.RentalPrice, string(loan.Status),
	).Scan(&loan.ID, &loan.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert loan: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO loan_editions (loan_id, edition_id)
		SELECT $1, UNNEST($2::bigint[])`, loan.ID, loan.EditionIDs)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: edición inexistente", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert loan editions: %w", err)
	}
	return nil
}

// GetByID obtiene un préstamo. (nil, nil) si no existe.
func (r *LoanRepo) GetByID(ctx context.Context, id int64) (*entity.Loan, error) {
	return r.getOne(ctx, loanSelect().Where(goqu.I("l.id").Eq(id)))
}

// GetForUpdate igual que GetByID pero con FOR UPDATE sobre la fila del préstamo.
func (r *LoanRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Loan, error) {
	return r.getOne(ctx, loanSelect().Where(goqu.I("l.id").Eq(id)).ForUpdate(exp.Wait))
}

func (r *LoanRepo) getOne(ctx context.Context, ds *goqu.SelectDataset) (*entity.Loan, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loan query: %w", err)
	}
	l, err := scanLoan(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

// List préstamos filtrados con paginación.
func (r *LoanRepo) List(ctx context.Context, filter entity.LoanFilter) ([]*entity.Loan, error) {
	query, args, err := buildLoanListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build loan list query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()
	var list []*entity.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado y, al devolver, la fecha de entrega.
func (r *LoanRepo) UpdateStatus(ctx context.Context, id int64, status entity.LoanStatus, returnedAt *time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE loans SET status = $2, returned_at = COALESCE($3, returned_at) WHERE id = $1`,
		id, string(status), returnedAt)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanLoan normaliza el estado leído: datos importados pueden traer grafías antiguas.
func scanLoan(row pgx.Row) (*entity.Loan, error) {
	var (
		l   entity.Loan
		raw string
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.LoanDate, &l.DueDate, &l.ReturnedAt, &l.RentalPrice,
		&raw, &l.CreatedAt, &l.EditionIDs); err != nil {
		return nil, err
	}
	st, err := entity.ParseLoanStatus(raw)
	if err != nil {
		return nil, fmt.Errorf("loan %d: %w", l.ID, err)
	}
	l.Status = st
	return &l, nil
}
