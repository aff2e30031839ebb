// Package kafka publica los eventos de dominio en un tópico de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/pkg/config"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// ErrClosed lo devuelve Publish después de Close.
var ErrClosed = errors.New("kafka: publisher cerrado")

// Publisher encola los eventos y los escribe desde una goroutine propia.
// Si la cola está llena el evento se descarta y se reporta error.
type Publisher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	log     zerolog.Logger
	mu      sync.RWMutex
	closed  bool
	started bool
	stop    chan struct{}
	closeCh chan struct{}
}

// NewPublisher construye el publisher. Llamar Start antes de publicar.
func NewPublisher(cfg config.KafkaConfig, log zerolog.Logger) *Publisher {
	buf := cfg.Buffer
	if buf <= 0 {
		buf = 256
	}
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		inbox:   make(chan kafka.Message, buf),
		log:     log,
		stop:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

// Start arranca el loop de escritura; al cancelar ctx vacía la cola y cierra el writer.
func (p *Publisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case <-p.stop:
				p.drain()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Publisher) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			p.closeWriter()
			return
		}
	}
}

func (p *Publisher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error().Err(err).Str("key", string(m.Key)).Msg("kafka: no se pudo escribir el evento")
	}
}

func (p *Publisher) closeWriter() {
	if err := p.w.Close(); err != nil {
		p.log.Warn().Err(err).Msg("kafka: error cerrando writer")
	}
}

// Publish serializa el evento y lo encola sin bloquear. Después de Close devuelve ErrClosed.
func (p *Publisher) Publish(_ context.Context, evt ports.Event) error {
	m, err := Message(evt)
	if err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- m:
		return nil
	default:
		return fmt.Errorf("kafka: cola llena, evento %s descartado", evt.Type)
	}
}

// Close deja de aceptar eventos y espera a que se vacíe la cola. Es idempotente.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if p.started {
			<-p.closeCh
		}
		return
	}
	p.closed = true
	started := p.started
	close(p.stop)
	p.mu.Unlock()

	if !started {
		p.closeWriter()
		return
	}
	<-p.closeCh
}

// Message arma el mensaje de Kafka: valor JSON del sobre, clave de partición y headers con el tipo.
func Message(evt ports.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: serializar evento %s: %w", evt.Type, err)
	}
	return kafka.Message{
		Key:   []byte(evt.Key),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "event_version", Value: []byte(strconv.Itoa(evt.Version))},
			{Key: "event_id", Value: []byte(evt.ID)},
		},
	}, nil
}
