package dto

import "github.com/shopspring/decimal"

// InventoryItemDTO una fila del reporte de inventario.
type InventoryItemDTO struct {
	BookID    int64  `json:"libro_id"`
	Title     string `json:"titulo"`
	Author    string `json:"autor"`
	Available int    `json:"copias_disponibles"`
	Total     int    `json:"copias_totales"`
}

// ActiveLoanDTO una fila del reporte de préstamos activos.
type ActiveLoanDTO struct {
	LoanID     int64  `json:"prestamo_id"`
	UserID     int64  `json:"usuario_id"`
	UserName   string `json:"usuario_nombre"`
	UserCI     string `json:"usuario_ci"`
	LoanDate   string `json:"fecha_prestamo"`
	DueDate    string `json:"fecha_devolucion"`
	DaysOnLoan int    `json:"dias_prestado"`
	Status     string `json:"estado"`
	Overdue    bool   `json:"vencido"`
}

// TopBorrowerDTO una fila del ranking de usuarios.
type TopBorrowerDTO struct {
	Position   int    `json:"posicion"`
	UserID     int64  `json:"usuario_id"`
	Name       string `json:"nombre"`
	CI         string `json:"ci"`
	TotalLoans int    `json:"total_prestamos"`
}

// HistoryUserDTO cabecera del historial.
type HistoryUserDTO struct {
	ID        int64  `json:"id"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	CI        string `json:"ci"`
}

// HistoryLoanDTO préstamo dentro del historial de un usuario.
type HistoryLoanDTO struct {
	ID         int64           `json:"id"`
	LoanDate   string          `json:"fecha_prestamo"`
	DueDate    string          `json:"fecha_devolucion"`
	ReturnedAt string          `json:"fecha_entrega,omitempty"`
	Status     string          `json:"estado"`
	Price      decimal.Decimal `json:"precio"`
	Titles     []string        `json:"libros"`
}

// UserHistoryDTO respuesta de /api/reportes/historial-usuario/:id.
type UserHistoryDTO struct {
	User  HistoryUserDTO   `json:"usuario"`
	Loans []HistoryLoanDTO `json:"prestamos"`
}
