package lending

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que préstamo y copias cambien juntos o no cambien.
type TxRunner interface {
	RunLoan(ctx context.Context, fn func(
		loanRepo repository.LoanRepository,
		stockRepo repository.CopyStockRepository,
	) error) error
}
