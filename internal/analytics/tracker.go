// Package analytics publishes product events. Events are dropped while analytics feature is off
// and their properties never carry raw emails or phone numbers.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/pii"
)

// Tracker records product events
type Tracker interface {
	Track(ctx context.Context, event string, props map[string]any) error
}

// FlagReader gives current feature flags
type FlagReader interface {
	Cached() model.FlagState
}

// MessageWriter is the part of kafka.Writer tracker needs
type MessageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
}

// Event is the published message
type Event struct {
	Name       string         `json:"event"`
	Properties map[string]any `json:"properties"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// KafkaTracker writes events to kafka topic
type KafkaTracker struct {
	writer MessageWriter
	flags  FlagReader
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewKafkaWriter builds writer for analytics topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaTracker builds KafkaTracker
func NewKafkaTracker(writer MessageWriter, flags FlagReader, logger logrus.FieldLogger) *KafkaTracker {
	return &KafkaTracker{
		writer: writer,
		flags:  flags,
		logger: logger,
		now:    time.Now,
	}
}

// Track publishes event with scrubbed properties if analytics is enabled
func (t *KafkaTracker) Track(ctx context.Context, event string, props map[string]any) error {
	if !t.flags.Cached().Analytics {
		t.logger.WithField("event", event).Debug("analytics disabled, event dropped")
		return nil
	}

	scrubbed, _ := pii.ScrubPII(props).(map[string]any)

	payload, err := json.Marshal(&Event{
		Name:       event,
		Properties: scrubbed,
		OccurredAt: t.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode analytics event %s - %w", event, err)
	}

	if err := t.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event), Value: payload}); err != nil {
		return fmt.Errorf("failed to publish analytics event %s - %w", event, err)
	}
	return nil
}

type nopTracker struct{}

// NopTracker discards every event
func NopTracker() Tracker {
	return nopTracker{}
}

func (nopTracker) Track(context.Context, string, map[string]any) error {
	return nil
}
