// Package events publica los eventos del ciclo de vida de los préstamos.
package events

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/pkg/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// messageWriter subconjunto de *kafka.Writer que usa el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implementa ports.EventPublisher sobre un tópico Kafka.
// La clave del mensaje es el id del préstamo, así todos sus eventos caen en la misma partición.
type KafkaPublisher struct {
	w       messageWriter
	timeout time.Duration
}

// NewKafkaWriter construye el writer para el tópico de préstamos.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.LoanTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
}

// NewKafkaPublisher envuelve un writer. Cada publicación tiene un timeout propio.
func NewKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w, timeout: 5 * time.Second}
}

// New devuelve el publicador Kafka si hay brokers configurados; si no, uno que descarta los eventos.
func New(cfg config.KafkaConfig) ports.EventPublisher {
	if !cfg.Enabled() {
		return Nop{}
	}
	return NewKafkaPublisher(NewKafkaWriter(cfg))
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ports.LoanEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: serializar evento: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(fmt.Sprintf("prestamo-%d", ev.LoanID)),
		Value:   value,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(ev.Type)}},
		Time:    ev.OccurredAt,
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publicar %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Nop descarta los eventos (sin brokers configurados).
type Nop struct{}

func (Nop) Publish(context.Context, ports.LoanEvent) error { return nil }
func (Nop) Close() error                                  { return nil }

var (
	_ ports.EventPublisher = (*KafkaPublisher)(nil)
	_ ports.EventPublisher = Nop{}
)
