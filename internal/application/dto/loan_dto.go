package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLoanRequest alta de préstamo. Fechas en formato YYYY-MM-DD.
type CreateLoanRequest struct {
	UserID      int64           `json:"usuario_id"`
	EditionIDs  []int64         `json:"ediciones"`
	LoanDate    string          `json:"fecha_prestamo"`
	DueDate     string          `json:"fecha_devolucion"`
	RentalPrice decimal.Decimal `json:"precio_alquiler"`
}

// LoanResponse salida de un préstamo.
type LoanResponse struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"usuario_id"`
	LoanDate    string          `json:"fecha_prestamo"`
	DueDate     string          `json:"fecha_devolucion"`
	ReturnedAt  *time.Time      `json:"fecha_entrega,omitempty"`
	RentalPrice decimal.Decimal `json:"precio_alquiler"`
	Status      string          `json:"estado"`
	EditionIDs  []int64         `json:"ediciones"`
	DaysOnLoan  int             `json:"dias_prestado"`
	Overdue     bool            `json:"vencido"`
}

// LoanMutationResponse respuesta de alta/transición de préstamo.
type LoanMutationResponse struct {
	Mensaje  string       `json:"mensaje"`
	Prestamo LoanResponse `json:"prestamo"`
}

// LoanListQuery filtros del listado de préstamos (?estado=&usuario_id=&limit=&offset=).
type LoanListQuery struct {
	Status string `query:"estado"`
	UserID int64  `query:"usuario_id"`
	PageRequest
}
