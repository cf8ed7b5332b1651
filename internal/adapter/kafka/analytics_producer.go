package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
	"github.com/IBM/sarama"
)

// AnalyticsProducer records product events on a Kafka topic. Strictly
// fire-and-forget: errors are logged and swallowed so analytics can never
// block or fail the order flow.
type AnalyticsProducer struct {
	prod  sarama.SyncProducer
	topic string
	log   *slog.Logger
}

func NewAnalyticsProducer(prod sarama.SyncProducer, topic string, log *slog.Logger) *AnalyticsProducer {
	return &AnalyticsProducer{prod: prod, topic: topic, log: log}
}

type analyticsEvent struct {
	Event string         `json:"event"`
	At    time.Time      `json:"at"`
	Data  map[string]any `json:"data,omitempty"`
}

func (p *AnalyticsProducer) Record(_ context.Context, event string, fields map[string]any) {
	body, err := json.Marshal(analyticsEvent{Event: event, At: time.Now().UTC(), Data: fields})
	if err != nil {
		p.log.Warn("analytics marshal failed", "event", event, "err", err)
		return
	}
	_, _, err = p.prod.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event),
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		p.log.Warn("analytics send failed", "event", event, "err", err)
	}
}

// NopAnalytics is used where no broker is configured (tests, local runs).
type NopAnalytics struct{}

func (NopAnalytics) Record(context.Context, string, map[string]any) {}

var (
	_ usecase.AnalyticsSink = (*AnalyticsProducer)(nil)
	_ usecase.AnalyticsSink = NopAnalytics{}
)
