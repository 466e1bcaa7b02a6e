package repository

import (
	"context"

	"SalePulse/internal/domain/models"
	domrepo "SalePulse/internal/domain/repository"
	pkgkafka "SalePulse/pkg/kafka"
)

// KafkaAlertPublisher fans anomaly events out on the alert topic so
// downstream consumers (BI refresh, audit log) see every alert the
// chat channel does.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) domrepo.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) Publish(ctx context.Context, ev *models.AnomalyEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Store.String()), map[string]interface{}{
		"date":       ev.Date.Format(models.DateLayout),
		"store":      ev.Store.String(),
		"kind":       string(ev.Kind),
		"sum_amount": ev.SumAmount,
		"deviation":  ev.Deviation,
		"videos":     ev.VideoLinks,
		"news":       ev.NewsLinks,
	})
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
