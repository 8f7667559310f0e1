package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// CycleEvent is the message published for every finished tracking cycle.
type CycleEvent struct {
	ContainerID string    `json:"container_id"`
	VesselName  string    `json:"vessel_name,omitempty"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	ETA         string    `json:"eta,omitempty"`
	Risk        string    `json:"risk,omitempty"`
	HasWeather  bool      `json:"has_weather"`
	HasSummary  bool      `json:"has_summary"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	DurationMS  int64     `json:"duration_ms"`
}

// NewCycleEvent flattens a cycle into its event form.
func NewCycleEvent(c Cycle) CycleEvent {
	evt := CycleEvent{
		ContainerID: c.ContainerID,
		HasWeather:  c.Weather != nil,
		HasSummary:  c.Summary != "",
		Error:       c.Error,
		Timestamp:   c.StartedAt.UTC(),
		DurationMS:  c.Duration.Milliseconds(),
	}
	if t := c.Track; t != nil {
		lat, lon := t.Lat, t.Lon
		evt.VesselName = t.VesselName
		evt.Lat = &lat
		evt.Lon = &lon
		evt.ETA = t.ETA
		evt.Risk = t.Risk
	}
	return evt
}

// messageWriter is the part of kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventProducer publishes cycle events to Kafka.
type EventProducer struct {
	writer messageWriter
}

// NewEventProducer creates a producer for the given topic.
func NewEventProducer(brokers []string, topic string) *EventProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		Async:                  true,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &EventProducer{writer: w}
}

// Publish writes one event keyed by container id.
func (p *EventProducer) Publish(ctx context.Context, evt CycleEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.ContainerID),
		Value: data,
	})
}

// CycleCompleted publishes the cycle; failures are logged only.
func (p *EventProducer) CycleCompleted(ctx context.Context, c Cycle) {
	if err := p.Publish(ctx, NewCycleEvent(c)); err != nil {
		slog.Error("publish cycle event failed",
			"container_id", c.ContainerID,
			"error", err,
		)
	}
}

// Close flushes pending messages and closes the connection.
func (p *EventProducer) Close() error {
	return p.writer.Close()
}
