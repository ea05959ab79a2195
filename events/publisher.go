// Package events publishes run outcomes to Kafka so downstream consumers can
// follow what was listed, rejected or failed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"asin-lister/models"
	"asin-lister/utils"
)

// DefaultTopic is the outcome topic used when none is configured.
const DefaultTopic = "listing.outcomes"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one message per outcome, keyed by identifier so every
// outcome of one item lands on the same partition.
type Publisher struct {
	w      messageWriter
	logger *utils.Logger
}

// OutcomeEvent is the JSON value of each message.
type OutcomeEvent struct {
	RunID          string   `json:"run_id"`
	ASIN           string   `json:"asin"`
	Status         string   `json:"status"`
	Message        string   `json:"message,omitempty"`
	ForbiddenWords []string `json:"forbidden_words,omitempty"`
	ItemCode       string   `json:"item_code,omitempty"`
}

// NewPublisher creates a Publisher writing to topic on broker.
func NewPublisher(broker, topic string, logger *utils.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{w: w, logger: logger}
}

// Publish sends the outcomes of one run.
func (p *Publisher) Publish(ctx context.Context, runID string, outcomes []models.ListingOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	msgs, err := buildMessages(runID, outcomes, time.Now())
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: publish %d outcomes: %w", len(msgs), err)
	}
	p.logger.Info("[events] Published %d outcomes for run %s", len(msgs), runID)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}

func buildMessages(runID string, outcomes []models.ListingOutcome, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(outcomes))
	for _, o := range outcomes {
		data, err := json.Marshal(OutcomeEvent{
			RunID:          runID,
			ASIN:           o.ASIN,
			Status:         string(o.Status),
			Message:        o.Message,
			ForbiddenWords: o.ForbiddenWords,
			ItemCode:       o.ItemCode,
		})
		if err != nil {
			return nil, fmt.Errorf("kafka: encode outcome %s: %w", o.ASIN, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(o.ASIN),
			Value: data,
			Time:  now,
		})
	}
	return msgs, nil
}
