package ports

import (
	"context"
	"time"
)

// Tipos de evento del ciclo de vida de un préstamo.
const (
	EventLoanCreated  = "loan.created"
	EventLoanStarted  = "loan.started"
	EventLoanReturned = "loan.returned"
)

// LoanEvent mensaje publicado tras cada cambio de estado de un préstamo.
type LoanEvent struct {
	Type       string    `json:"type"`
	LoanID     int64     `json:"loan_id"`
	UserID     int64     `json:"user_id"`
	Status     string    `json:"status"`
	EditionIDs []int64   `json:"edition_ids"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher puerto de salida para eventos de dominio (Kafka o no-op).
// El llamador decide qué hacer con el error; los casos de uso solo lo registran.
type EventPublisher interface {
	Publish(ctx context.Context, event LoanEvent) error
	Close() error
}
