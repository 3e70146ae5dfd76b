package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var (
	_ repository.ReportRepository = (*ReportRepo)(nil)
	_ repository.StatsRepository  = (*ReportRepo)(nil)
)

// ReportRepo consultas de solo lectura para reportes y dashboard.
type ReportRepo struct {
	pool *pgxpool.Pool
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Inventory una fila por libro con la suma de copias de todas sus ediciones.
// Los libros sin ediciones aparecen con ceros.
func (r *ReportRepo) Inventory(ctx context.Context) ([]repository.InventoryRow, error) {
	const query = `
	SELECT b.id, b.title, b.author,
	       COALESCE(SUM(cp.available), 0) AS available,
	       COALESCE(SUM(cp.total), 0)     AS total
	FROM books b
	LEFT JOIN editions e ON e.book_id    = b.id
	LEFT JOIN copies  cp ON cp.edition_id = e.id
	GROUP BY b.id, b.title, b.author
	ORDER BY b.title, b.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("inventory report: %w", err)
	}
	defer rows.Close()
	var out []repository.InventoryRow
	for rows.Next() {
		var row repository.InventoryRow
		if err := rows.Scan(&row.BookID, &row.Title, &row.Author, &row.Available, &row.Total); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ActiveLoans préstamos Pendiente o En curso, los más antiguos primero.
func (r *ReportRepo) ActiveLoans(ctx context.Context) ([]repository.ActiveLoanRow, error) {
	const query = `
	SELECT l.id, u.id, u.first_name, u.last_name, u.ci, l.loan_date, l.due_date, l.status
	FROM loans l
	JOIN users u ON u.id = l.user_id
	WHERE l.status IN ($1, $2)
	ORDER BY l.loan_date, l.id`

	rows, err := r.pool.Query(ctx, query, string(entity.LoanPending), string(entity.LoanInProgress))
	if err != nil {
		return nil, fmt.Errorf("active loans report: %w", err)
	}
	defer rows.Close()
	var out []repository.ActiveLoanRow
	for rows.Next() {
		var row repository.ActiveLoanRow
		if err := rows.Scan(&row.LoanID, &row.UserID, &row.FirstName, &row.LastName, &row.CI,
			&row.LoanDate, &row.DueDate, &row.RawStatus); err != nil {
			return nil, fmt.Errorf("scan active loan row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// TopBorrowers usuarios con más préstamos; empates por apellido y nombre.
func (r *ReportRepo) TopBorrowers(ctx context.Context, limit int) ([]repository.TopBorrowerRow, error) {
	const query = `
	SELECT u.id, u.first_name, u.last_name, u.ci, COUNT(l.id) AS total
	FROM users u
	JOIN loans l ON l.user_id = u.id
	GROUP BY u.id, u.first_name, u.last_name, u.ci
	ORDER BY total DESC, u.last_name, u.first_name, u.id
	LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top borrowers report: %w", err)
	}
	defer rows.Close()
	var out []repository.TopBorrowerRow
	for rows.Next() {
		var row repository.TopBorrowerRow
		if err := rows.Scan(&row.UserID, &row.FirstName, &row.LastName, &row.CI, &row.TotalLoans); err != nil {
			return nil, fmt.Errorf("scan top borrower row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UserLoanHistory préstamos del usuario en orden cronológico con los títulos prestados.
func (r *ReportRepo) UserLoanHistory(ctx context.Context, userID int64) ([]repository.LoanHistoryRow, error) {
	const query = `
	SELECT l.id, l.loan_date, l.due_date, l.returned_at, l.status, l.rental_price,
	       ARRAY(SELECT b.title
	               FROM loan_editions le
	               JOIN editions e ON e.id = le.edition_id
	               JOIN books b    ON b.id = e.book_id
	              WHERE le.loan_id = l.id
	              ORDER BY b.title) AS titles
	FROM loans l
	WHERE l.user_id = $1
	ORDER BY l.loan_date, l.id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("user history report: %w", err)
	}
	defer rows.Close()
	var out []repository.LoanHistoryRow
	for rows.Next() {
		var row repository.LoanHistoryRow
		if err := rows.Scan(&row.LoanID, &row.LoanDate, &row.DueDate, &row.ReturnedAt, &row.RawStatus,
			&row.Price, &row.Titles); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *ReportRepo) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (r *ReportRepo) CountBooks(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM books`)
}

// CountCopies total de ejemplares físicos, prestados o no.
func (r *ReportRepo) CountCopies(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COALESCE(SUM(total), 0) FROM copies`)
}

func (r *ReportRepo) CountLoansByStatus(ctx context.Context, status entity.LoanStatus) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM loans WHERE status = $1`, string(status))
}

// CountOverdueLoans préstamos activos cuya fecha de devolución ya pasó.
func (r *ReportRepo) CountOverdueLoans(ctx context.Context, today time.Time) (int, error) {
	return r.count(ctx,
		`SELECT COUNT(*) FROM loans WHERE status IN ($1, $2) AND due_date < $3::date`,
		string(entity.LoanPending), string(entity.LoanInProgress), today.Format("2006-01-02"))
}

func (r *ReportRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return int(n), nil
}
