package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LoanStatus estado del ciclo de vida de un préstamo. El valor es la grafía canónica en disco.
type LoanStatus string

const (
	LoanPending    LoanStatus = "Pendiente"
	LoanInProgress LoanStatus = "En curso"
	LoanReturned   LoanStatus = "Devuelto"
)

// AllLoanStatuses en orden del ciclo de vida.
var AllLoanStatuses = []LoanStatus{LoanPending, LoanInProgress, LoanReturned}

var loanStatusAliases = map[string]LoanStatus{
	"pendiente":   LoanPending,
	"pending":     LoanPending,
	"en curso":    LoanInProgress,
	"encurso":     LoanInProgress,
	"in progress": LoanInProgress,
	"inprogress":  LoanInProgress,
	"devuelto":    LoanReturned,
	"returned":    LoanReturned,
}

// ParseLoanStatus acepta las grafías que se han guardado históricamente
// ("En curso", "En_curso", "EN-CURSO", "InProgress", con o sin tildes) y devuelve la canónica.
func ParseLoanStatus(raw string) (LoanStatus, error) {
	key := foldStatus(raw)
	if st, ok := loanStatusAliases[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("estado de préstamo desconocido %q", raw)
}

func foldStatus(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return unicode.ToLower(r)
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// IsActive indica si el préstamo retiene copias (pendiente o en curso).
func (s LoanStatus) IsActive() bool {
	return s == LoanPending || s == LoanInProgress
}

// CanTransition reglas del ciclo: Pendiente -> En curso -> Devuelto; Pendiente -> Devuelto cancela.
func (s LoanStatus) CanTransition(to LoanStatus) bool {
	switch s {
	case LoanPending:
		return to == LoanInProgress || to == LoanReturned
	case LoanInProgress:
		return to == LoanReturned
	}
	return false
}

func (s LoanStatus) String() string { return string(s) }

// Loan préstamo de una o varias ediciones a un usuario.
type Loan struct {
	ID          int64
	UserID      int64
	LoanDate    time.Time
	DueDate     time.Time
	ReturnedAt  *time.Time
	RentalPrice decimal.Decimal
	Status      LoanStatus
	EditionIDs  []int64
	CreatedAt   time.Time
}

// DaysOnLoan días transcurridos desde la fecha de préstamo hasta now (o hasta la devolución).
func (l *Loan) DaysOnLoan(now time.Time) int {
	end := now
	if l.ReturnedAt != nil {
		end = *l.ReturnedAt
	}
	return DaysBetween(l.LoanDate, end)
}

// IsOverdue préstamo activo cuya fecha de devolución ya pasó.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status.IsActive() && DaysBetween(l.DueDate, now) > 0
}

// DaysBetween diferencia en días de calendario (to - from), nunca negativa.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	d := int(t.Sub(f).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// LoanFilter filtros del listado de préstamos.
type LoanFilter struct {
	Status *LoanStatus
	UserID *int64
	Limit  int
	Offset int
}
