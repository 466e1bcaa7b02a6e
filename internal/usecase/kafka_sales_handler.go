package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SalePulse/internal/domain/models"
	"SalePulse/internal/domain/repository"
	pkgkafka "SalePulse/pkg/kafka"
)

// KafkaSalesHandler consumes crawled daily sales records and persists
// them. The crawler publishes one message per (store, day).
type KafkaSalesHandler struct {
	topic   string
	writer  repository.RecordWriter
	metrics repository.Metrics
}

func NewKafkaSalesHandler(topic string, writer repository.RecordWriter, metrics repository.Metrics) *KafkaSalesHandler {
	return &KafkaSalesHandler{topic: topic, writer: writer, metrics: metrics}
}

func (h *KafkaSalesHandler) Topic() string { return h.topic }

// incoming message schema mirrors the upstream crawler export
func (h *KafkaSalesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Date       string     `json:"date"`
		Store      string     `json:"store"`
		SumAmount  float64    `json:"sum_amount"`
		Man        [6]float64 `json:"man"`
		Woman      [6]float64 `json:"woman"`
		StoreCount float64    `json:"store_count"`
		OnePlusOne float64    `json:"one_plus_one"`
		TwoPlusOne float64    `json:"two_plus_one"`
		MediaCount float64    `json:"media_count"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	date, err := time.Parse(models.DateLayout, m.Date)
	if err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("sales record date: %w", err)
	}
	store, err := models.ParseStore(m.Store)
	if err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("sales record store: %w", err)
	}

	start := time.Now()
	err = h.writer.Write(ctx, &models.SalesRecord{
		Date:       date,
		Store:      store,
		SumAmount:  m.SumAmount,
		Man:        m.Man,
		Woman:      m.Woman,
		StoreCount: m.StoreCount,
		OnePlusOne: m.OnePlusOne,
		TwoPlusOne: m.TwoPlusOne,
		MediaCount: m.MediaCount,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSalesHandler)(nil)
