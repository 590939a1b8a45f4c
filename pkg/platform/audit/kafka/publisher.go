// Package kafka publishes notification events to a Kafka topic. The topic is
// ensured at construction so fresh environments need no manual setup.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "restgate/pkg/platform/audit"
)

// Publisher implements audit.Emitter over a Kafka topic. Events are keyed by
// subject identity so per-subject ordering is preserved across partitions.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// payload is the wire form of an event. Field names are part of the consumer
// contract; do not rename without versioning the topic.
type payload struct {
	Action          string `json:"action"`
	Timestamp       string `json:"timestamp"`
	Subject         string `json:"subject,omitempty"`
	Actor           string `json:"actor,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
	BPMThreshold    uint16 `json:"bpm_threshold,omitempty"`
	StressThreshold uint16 `json:"stress_threshold,omitempty"`
	Mode            string `json:"mode,omitempty"`
	DecisionHandle  string `json:"decision_handle,omitempty"`
	IsPublic        bool   `json:"is_public,omitempty"`
	NewAdmin        string `json:"new_admin,omitempty"`
}

// New connects to the brokers and ensures the topic exists.
func New(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, err)
	}
	for _, result := range resp.Sorted() {
		if result.Err != nil && !errors.Is(result.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("ensure topic %q: %w", topic, result.Err)
		}
	}

	return &Publisher{client: client, topic: topic}, nil
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	body := payload{
		Action:          string(event.Action),
		Timestamp:       event.Timestamp.Format(time.RFC3339Nano),
		RequestID:       event.RequestID,
		BPMThreshold:    event.BPMThreshold,
		StressThreshold: event.StressThreshold,
		Mode:            event.Mode,
		DecisionHandle:  event.DecisionHandle,
		IsPublic:        event.IsPublic,
	}
	if !event.Subject.IsNil() {
		body.Subject = event.Subject.String()
	}
	if !event.Actor.IsNil() {
		body.Actor = event.Actor.String()
	}
	if !event.NewAdmin.IsNil() {
		body.NewAdmin = event.NewAdmin.String()
	}

	value, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(body.Subject),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
