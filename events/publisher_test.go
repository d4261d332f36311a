package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

type recordingWriter struct {
	calls  int
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func sampleRecord(id, companyID string) energy.EnergyRecord {
	return energy.EnergyRecord{
		ID:             id,
		CompanyID:      companyID,
		DepartmentID:   "ml",
		DepartmentName: "ML Platform",
		UsageDate:      generic.NewTimePoint(2025, time.March, 10),
		TotalKwh:       decimal.NewFromInt(1000),
		Region:         "US",
		DataSource:     energy.SourceManual,
		Currency:       "USD",
		Derived: energy.Derived{
			AIAttributedKwh:   decimal.NewFromInt(800),
			AttributionSource: energy.AttributedByDepartment,
			CarbonIntensity:   decimal.NewFromInt(386),
			Co2eKg:            decimal.NewFromInt(386),
			AICo2eKg:          decimal.RequireFromString("308.8"),
			Cost:              decimal.NewFromInt(120),
			AICost:            decimal.NewFromInt(96),
		},
		CreatedAt: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublishRecords_OneMessagePerRecordKeyedByCompany(t *testing.T) {
	w := &recordingWriter{}
	p := newPublisherWithWriter(Config{Enabled: true, Topic: "energy-records", Brokers: []string{"b:9092"}}, nil, w, w)

	err := p.PublishRecords(context.Background(), []energy.EnergyRecord{
		sampleRecord("r1", "acme"),
		sampleRecord("r2", "acme"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, w.calls, "records go out in a single batch")
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "acme", string(w.msgs[0].Key))

	var event RecordEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, EventTypeRecordAppended, event.Type)
	assert.Equal(t, "r1", event.RecordID)
	assert.Equal(t, "2025-03-10", event.UsageDate)
	assert.Equal(t, "800", event.AIAttributedKwh)
	assert.Equal(t, "308.8", event.AICo2eKg)
	assert.Equal(t, "department", event.AttributionSource)
	assert.Equal(t, "2025-03-10T09:00:00Z", event.CreatedAt)
}

func TestPublishRecords_WrapsWriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := newPublisherWithWriter(Config{Enabled: true, Topic: "t"}, nil, w, w)

	err := p.PublishRecords(context.Background(), []energy.EnergyRecord{sampleRecord("r1", "acme")})

	assert.EqualError(t, err, "failed to publish 1 records: leader not available")
}

func TestPublisher_NilAndEmptyAreNoops(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.PublishRecords(context.Background(), []energy.EnergyRecord{sampleRecord("r1", "acme")}))
	assert.NoError(t, p.Close())

	w := &recordingWriter{}
	p = newPublisherWithWriter(Config{Enabled: true, Topic: "t"}, nil, w, w)
	assert.NoError(t, p.PublishRecords(context.Background(), nil))
	assert.Zero(t, w.calls)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewPublisher_DisabledReturnsNil(t *testing.T) {
	p, err := NewPublisher(Config{}, nil)

	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Validate(), "disabled config is always valid")
	assert.Error(t, Config{Enabled: true, Brokers: []string{"b:9092"}}.Validate())
	assert.Error(t, Config{Enabled: true, Topic: "t"}.Validate())
	assert.NoError(t, Config{Enabled: true, Topic: "t", Brokers: []string{"b:9092"}}.Validate())

	_, err := NewPublisher(Config{Enabled: true}, nil)
	assert.Error(t, err)
}
