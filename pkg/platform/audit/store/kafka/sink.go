// Package kafka publishes audit events to a Kafka topic for downstream
// retention. It is append-only; querying stays with the primary store.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "regdesk/pkg/platform/audit"
)

// DefaultTopic receives every desk audit event.
const DefaultTopic = "regdesk.audit"

// Sink produces audit events as JSON records keyed by event id.
type Sink struct {
	client *kgo.Client
	topic  string
}

type Option func(*config)

type config struct {
	topic    string
	clientID string
}

func WithTopic(topic string) Option {
	return func(c *config) { c.topic = topic }
}

func WithClientID(clientID string) Option {
	return func(c *config) { c.clientID = clientID }
}

// NewSink connects to the seed brokers. The connection is lazy; the first
// produce surfaces broker errors.
func NewSink(brokers []string, opts ...Option) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka sink requires at least one broker")
	}
	cfg := config{topic: DefaultTopic, clientID: "regdesk"}
	for _, opt := range opts {
		opt(&cfg)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(cfg.clientID),
		kgo.DefaultProduceTopic(cfg.topic),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: cfg.topic}, nil
}

// EnsureTopic creates the audit topic when missing.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

type record struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	Timestamp       string `json:"timestamp"`
	OperatorID      string `json:"operator_id,omitempty"`
	Username        string `json:"username,omitempty"`
	Subject         string `json:"subject,omitempty"`
	SubjectCategory string `json:"subject_category,omitempty"`
	Action          string `json:"action"`
	Decision        string `json:"decision,omitempty"`
	Reason          string `json:"reason,omitempty"`
	IP              string `json:"ip,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	payload := record{
		ID:              eventID.String(),
		Category:        string(category),
		Timestamp:       event.Timestamp.UTC().Format(time.RFC3339Nano),
		Username:        event.Username,
		Subject:         event.Subject,
		SubjectCategory: event.SubjectCategory,
		Action:          event.Action,
		Decision:        event.Decision,
		Reason:          event.Reason,
		IP:              event.IP,
		RequestID:       event.RequestID,
	}
	if !event.OperatorID.IsNil() {
		payload.OperatorID = event.OperatorID.String()
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(eventID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(category)},
		},
	}
	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes buffered records and closes the client.
func (s *Sink) Close(ctx context.Context) error {
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
