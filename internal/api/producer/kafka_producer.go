package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/odds-settlement-core/pkg/contracts/events"
)

// KafkaPublisher publica os eventos originados na odds-api.
type KafkaPublisher struct {
	Links  *kafka.Writer
	Ingest *kafka.Writer
}

func NewKafkaPublisher(links, ingest *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Links: links, Ingest: ingest}
}

// PublishStrategyLinkChanged publica no tópico strategy_link_changed,
// chaveado pelo strategyID para serializar o fan-out por estratégia.
func (p *KafkaPublisher) PublishStrategyLinkChanged(ctx context.Context, e events.StrategyLinkChanged) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Links.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.StrategyID),
		Value: b,
	})
}

// PublishIngestRequest enfileira um pedido de ingestão para o worker
func (p *KafkaPublisher) PublishIngestRequest(ctx context.Context, e events.IngestRequest) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Ingest.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.EventID),
		Value: b,
	})
}
