// Package kafka publishes outbox messages to Kafka.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type dialFunc func(ctx context.Context, network, address string) (*kafka.Conn, error)

// Producer writes synchronously so the outbox only marks rows published after
// every in-sync replica acked.
type Producer struct {
	w       messageWriter
	brokers []string
	timeout time.Duration
	dial    dialFunc
}

func NewProducer(cfg config.KafkaConfig, logg *logger.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: timeout,
		},
		brokers: cfg.Brokers,
		timeout: timeout,
		dial:    kafka.DialContext,
	}
	if logg != nil {
		logg.Info(context.Background(), "kafka producer initialized")
	}
	return p, nil
}

// Publish maps the attributes onto headers and the key onto the partition key.
func (p *Producer) Publish(ctx context.Context, msg outbox.Message) error {
	if msg.Topic == "" {
		return errors.New("kafka topic is required")
	}
	headers := make([]kafka.Header, 0, len(msg.Attributes))
	for k, v := range msg.Attributes {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	km := kafka.Message{
		Topic:   msg.Topic,
		Value:   msg.Data,
		Headers: headers,
		Time:    time.Now().UTC(),
	}
	if msg.Key != "" {
		km.Key = []byte(msg.Key)
	}
	if err := p.w.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.Topic, err)
	}
	return nil
}

// Ping succeeds when any broker accepts a connection.
func (p *Producer) Ping(ctx context.Context) error {
	var errs error
	for _, broker := range p.brokers {
		dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
		conn, err := p.dial(dialCtx, "tcp", broker)
		cancel()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dial %s: %w", broker, err))
			continue
		}
		_ = conn.Close()
		return nil
	}
	return errs
}

func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
