// Package events publishes appended energy records to Kafka.
//
// Each record becomes one message keyed by company id, so a consumer sees a
// company's records in append order. Publishing happens after the records
// are durably stored; a failed publish is reported to the ledger, which
// logs it and moves on.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/warp/carbon-engine/energy"
)

// EventTypeRecordAppended is the type field of every published message.
const EventTypeRecordAppended = "energy.record.appended"

// Config encapsulates the runtime options required to publish records.
type Config struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	Acks         int           `yaml:"acks"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Validate checks an enabled configuration is usable.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("events topic must not be empty")
	}
	if len(c.Brokers) == 0 {
		return errors.New("at least one events broker is required")
	}
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type writeCloser interface {
	Close() error
}

// Publisher implements energy.Publisher on top of a Kafka writer.
type Publisher struct {
	cfg    Config
	log    *zap.Logger
	writer messageWriter
	closer writeCloser
}

var _ energy.Publisher = (*Publisher)(nil)

// NewPublisher constructs a Kafka-backed publisher. A disabled config
// returns (nil, nil): the ledger runs without publishing.
func NewPublisher(cfg Config, log *zap.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequiredAcks(cfg.Acks),
		AllowAutoTopicCreation: false,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.WriteTimeout,
	}
	return newPublisherWithWriter(cfg, log, w, w), nil
}

// newPublisherWithWriter wires the provided writer into the publisher. It is used in tests.
func newPublisherWithWriter(cfg Config, log *zap.Logger, writer messageWriter, closer writeCloser) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		cfg:    cfg,
		log:    log.With(zap.String("component", "record_publisher")),
		writer: writer,
		closer: closer,
	}
}

// RecordEvent is the message payload. Quantities are decimal strings.
type RecordEvent struct {
	Type              string `json:"type"`
	RecordID          string `json:"recordId"`
	CompanyID         string `json:"companyId"`
	DepartmentID      string `json:"departmentId,omitempty"`
	DepartmentName    string `json:"departmentName,omitempty"`
	UsageDate         string `json:"usageDate"`
	Region            string `json:"region"`
	DataSource        string `json:"dataSource"`
	TotalKwh          string `json:"totalKwh"`
	AIAttributedKwh   string `json:"aiAttributedKwh"`
	AttributionSource string `json:"attributionSource"`
	CarbonIntensity   string `json:"carbonIntensity"`
	Co2eKg            string `json:"co2eKg"`
	AICo2eKg          string `json:"aiCo2eKg"`
	Cost              string `json:"cost"`
	AICost            string `json:"aiCost"`
	Currency          string `json:"currency"`
	CreatedAt         string `json:"createdAt"`
}

// NewRecordEvent converts a record into its wire form.
func NewRecordEvent(r energy.EnergyRecord) RecordEvent {
	return RecordEvent{
		Type:              EventTypeRecordAppended,
		RecordID:          r.ID,
		CompanyID:         r.CompanyID,
		DepartmentID:      r.DepartmentID,
		DepartmentName:    r.DepartmentName,
		UsageDate:         r.UsageDate.String(),
		Region:            r.Region,
		DataSource:        string(r.DataSource),
		TotalKwh:          r.TotalKwh.String(),
		AIAttributedKwh:   r.Derived.AIAttributedKwh.String(),
		AttributionSource: string(r.Derived.AttributionSource),
		CarbonIntensity:   r.Derived.CarbonIntensity.String(),
		Co2eKg:            r.Derived.Co2eKg.String(),
		AICo2eKg:          r.Derived.AICo2eKg.String(),
		Cost:              r.Derived.Cost.String(),
		AICost:            r.Derived.AICost.String(),
		Currency:          r.Currency,
		CreatedAt:         r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// PublishRecords writes one message per record in a single batch.
func (p *Publisher) PublishRecords(ctx context.Context, records []energy.EnergyRecord) error {
	if p == nil || len(records) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		value, err := json.Marshal(NewRecordEvent(r))
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", r.ID, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.CompanyID), Value: value})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d records: %w", len(msgs), err)
	}
	p.log.Debug("records published", zap.Int("count", len(msgs)), zap.String("topic", p.cfg.Topic))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
