package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/odds-settlement-core/internal/catalog"
	"github.com/radieske/odds-settlement-core/internal/feed"
	"github.com/radieske/odds-settlement-core/internal/settlement"
	"github.com/radieske/odds-settlement-core/internal/settlement/producer"
	settlementrepo "github.com/radieske/odds-settlement-core/internal/settlement/repo"
	"github.com/radieske/odds-settlement-core/internal/shared/config"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
	"github.com/radieske/odds-settlement-core/internal/shared/kafka"
	"github.com/radieske/odds-settlement-core/internal/shared/logger"
	"github.com/radieske/odds-settlement-core/internal/shared/metrics"
	"github.com/radieske/odds-settlement-core/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Consumer Kafka dos eventos de jogo encerrado
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "settlement",
		Topic:    cfg.TopicGameFinal,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	// Producer dos eventos wager_settled e, opcionalmente, DLQ de game_final
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer settledWriter.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicGameFinalDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameFinalDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus da liquidação
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_games_consumed_total", Help: "eventos game_final consumidos"})
	resolved := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_wagers_resolved_total", Help: "apostas liquidadas"})
	unresolved := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_wagers_unresolved_total", Help: "apostas sem casamento de linha"})
	dlqSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_dlq_messages_total", Help: "mensagens enviadas à DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, resolved, unresolved, dlqSent, errorsBy)

	svc := &settlement.Service{
		Log:      log,
		Store:    settlementrepo.NewPostgres(pg),
		Results:  feed.New(cfg.FeedBaseURL, cfg.FeedAPIKey, cfg.FeedTimeout),
		Catalog:  catalog.New(cfg.CatalogBaseURL, cfg.FeedTimeout),
		Producer: producer.NewKafkaPublisher(settledWriter),
		Now:      time.Now,
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	defer msrv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicGameFinal),
		zap.String("publish", cfg.TopicWagerSettled),
	)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn("kafka read", zap.Error(err))
			errorsBy.WithLabelValues("consume").Inc()
			time.Sleep(time.Second)
			continue
		}
		consumed.Inc()

		var ev events.GameFinal
		if jerr := json.Unmarshal(msg.Value, &ev); jerr != nil || ev.EventID == "" {
			// Mensagem venenosa não trava o consumidor: vai direto pra DLQ
			log.Error("unmarshal game_final", zap.Error(jerr))
			errorsBy.WithLabelValues("decode").Inc()
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
				dlqSent.Inc()
			}
			continue
		}

		sum, err := settleWithRetry(ctx, svc, ev.EventID)
		if err != nil {
			log.Error("settle event", zap.String("event_id", ev.EventID), zap.Error(err))
			errorsBy.WithLabelValues("settle").Inc()
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, ev.EventID, msg.Value)
				dlqSent.Inc()
			}
			continue
		}

		resolved.Add(float64(sum.Resolved))
		unresolved.Add(float64(sum.Unresolved))
		if sum.SkippedReason != "" {
			log.Info("settlement skipped",
				zap.String("event_id", ev.EventID),
				zap.String("reason", sum.SkippedReason))
		}
	}

	log.Info("settlement-worker stopped")
}

// settleWithRetry tenta a liquidação até 3 vezes antes de desistir.
// Liquidação é idempotente, então repetir o ciclo inteiro é seguro.
func settleWithRetry(ctx context.Context, svc *settlement.Service, eventID string) (settlement.Summary, error) {
	const retries = 3
	var (
		sum settlement.Summary
		err error
	)
	for i := 0; i < retries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(300*i) * time.Millisecond)
		}
		if sum, err = svc.SettleEventWagers(ctx, eventID); err == nil {
			return sum, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return sum, err
}
