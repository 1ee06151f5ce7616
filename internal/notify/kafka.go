package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/edvin/rollout/internal/model"
)

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka sender.
type KafkaConfig struct {
	Brokers []string
	// DefaultTopic is used for rules without a target.
	DefaultTopic string
	// MaxAttempts defaults to 3.
	MaxAttempts int
	// WriteTimeout is the per-attempt timeout, default 5s.
	WriteTimeout time.Duration
}

// KafkaSender publishes events keyed by deployment id, so the events of one
// deployment land on one partition in order.
type KafkaSender struct {
	writer       messageWriter
	defaultTopic string
	maxAttempts  int
	writeTimeout time.Duration
}

func NewKafkaSender(cfg KafkaConfig) (*KafkaSender, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaSender(w, cfg), nil
}

func newKafkaSender(w messageWriter, cfg KafkaConfig) *KafkaSender {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &KafkaSender{
		writer:       w,
		defaultTopic: cfg.DefaultTopic,
		maxAttempts:  cfg.MaxAttempts,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Send publishes ev to the topic named by target, or the default topic.
func (s *KafkaSender) Send(ctx context.Context, target string, ev model.NotificationEvent) error {
	topic := target
	if topic == "" {
		topic = s.defaultTopic
	}
	if topic == "" {
		return fmt.Errorf("kafka: no topic for event %s", ev.Event)
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var lastErr error
	backoff := 100 * time.Millisecond
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		msg := kafka.Message{
			Topic: topic,
			Key:   []byte(ev.DeploymentID),
			Value: value,
			Time:  ev.Timestamp,
			Headers: []kafka.Header{
				{Key: "event", Value: []byte(ev.Event)},
			},
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
		err := s.writer.WriteMessages(attemptCtx, msg)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka produce to %s: %w", topic, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
	return fmt.Errorf("kafka produce to %s failed after %d attempts: %w", topic, s.maxAttempts, lastErr)
}

func (s *KafkaSender) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
