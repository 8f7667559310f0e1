package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// TelemetryConsumerConfig selects the topic carrying live positions.
type TelemetryConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// TelemetryConsumer forwards live positions from Kafka one message at a time.
type TelemetryConsumer struct {
	reader  *kafka.Reader
	forward func(TrackPoint)
}

// NewTelemetryConsumer creates a consumer that passes every valid position to
// forward. A new group starts at the newest offset: old fixes are of no use
// to an open map.
func NewTelemetryConsumer(cfg TelemetryConsumerConfig, forward func(TrackPoint)) *TelemetryConsumer {
	return &TelemetryConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          cfg.Topic,
			GroupID:        cfg.GroupID,
			MinBytes:       1,
			MaxBytes:       1 << 20,
			MaxWait:        250 * time.Millisecond,
			CommitInterval: time.Second,
			StartOffset:    kafka.LastOffset,
		}),
		forward: forward,
	}
}

// Run reads positions until ctx is cancelled. Bad messages are committed and
// dropped so one malformed record cannot wedge the partition.
func (c *TelemetryConsumer) Run(ctx context.Context) {
	cfg := c.reader.Config()
	slog.Info("telemetry consumer started", "topic", cfg.Topic, "group_id", cfg.GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("telemetry fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.handle(msg.Value, msg.Partition, msg.Offset)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			slog.Warn("telemetry commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *TelemetryConsumer) handle(value []byte, partition int, offset int64) {
	p, err := decodePosition(value)
	if err != nil {
		slog.Warn("telemetry message dropped",
			"partition", partition,
			"offset", offset,
			"error", err)
		return
	}
	c.forward(p)
}

// decodePosition parses one telemetry record.
func decodePosition(value []byte) (TrackPoint, error) {
	var p TrackPoint
	if err := json.Unmarshal(value, &p); err != nil {
		return TrackPoint{}, fmt.Errorf("decode position: %w", err)
	}
	switch {
	case p.ContainerID == "":
		return TrackPoint{}, errors.New("position without container_id")
	case p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180:
		return TrackPoint{}, fmt.Errorf("position %v,%v out of range", p.Lat, p.Lon)
	}
	return p, nil
}

// Close stops the reader and commits pending offsets.
func (c *TelemetryConsumer) Close() error {
	return c.reader.Close()
}
