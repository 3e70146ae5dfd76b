package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// InventoryRow fila cruda del reporte de inventario (una por libro).
type InventoryRow struct {
	BookID    int64
	Title     string
	Author    string
	Available int
	Total     int
}

// ActiveLoanRow fila cruda de préstamos activos. RawStatus viene tal cual de la DB.
type ActiveLoanRow struct {
	LoanID    int64
	UserID    int64
	FirstName string
	LastName  string
	CI        string
	LoanDate  time.Time
	DueDate   time.Time
	RawStatus string
}

// TopBorrowerRow usuario con su total de préstamos.
type TopBorrowerRow struct {
	UserID     int64
	FirstName  string
	LastName   string
	CI         string
	TotalLoans int
}

// LoanHistoryRow préstamo de un usuario con los títulos prestados.
type LoanHistoryRow struct {
	LoanID     int64
	LoanDate   time.Time
	DueDate    time.Time
	ReturnedAt *time.Time
	RawStatus  string
	Price      decimal.Decimal
	Titles     []string
}

// ReportRepository consultas de solo lectura para reportes administrativos.
type ReportRepository interface {
	Inventory(ctx context.Context) ([]InventoryRow, error)
	ActiveLoans(ctx context.Context) ([]ActiveLoanRow, error)
	TopBorrowers(ctx context.Context, limit int) ([]TopBorrowerRow, error)
	UserLoanHistory(ctx context.Context, userID int64) ([]LoanHistoryRow, error)
}

// StatsRepository conteos del dashboard. Cada método es una consulta independiente.
type StatsRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountBooks(ctx context.Context) (int, error)
	CountCopies(ctx context.Context) (int, error)
	CountLoansByStatus(ctx context.Context, status entity.LoanStatus) (int, error)
	CountOverdueLoans(ctx context.Context, today time.Time) (int, error)
}
