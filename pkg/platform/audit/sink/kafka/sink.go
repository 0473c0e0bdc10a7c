// Package kafka publishes audit events to a Kafka topic for external
// audit/observability consumers. Records are keyed by subject so per-driver
// event ordering is preserved within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"drivelog/pkg/domain"
	"drivelog/pkg/platform/audit"
)

type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects a producer to the given brokers. The topic must exist;
// provisioning is a deployment concern.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// envelope is the wire shape of an audit event. Identities travel as strings
// so consumers do not need our domain types.
type envelope struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Device    string    `json:"device,omitempty"`
}

func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(envelope{
		Category:  string(event.Category),
		Timestamp: event.Timestamp,
		Subject:   event.Subject.String(),
		Actor:     actorString(event.Actor),
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		Device:    event.Device,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *Sink) Close() {
	s.client.Close()
}

func actorString(actor domain.Identity) string {
	if actor.IsZero() {
		return ""
	}
	return actor.String()
}
