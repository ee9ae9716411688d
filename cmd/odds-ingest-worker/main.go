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
	"github.com/radieske/odds-settlement-core/internal/ingest"
	ingestcache "github.com/radieske/odds-settlement-core/internal/ingest/cache"
	"github.com/radieske/odds-settlement-core/internal/ingest/pubsub"
	ingestrepo "github.com/radieske/odds-settlement-core/internal/ingest/repo"
	"github.com/radieske/odds-settlement-core/internal/canonical"
	sharedcache "github.com/radieske/odds-settlement-core/internal/shared/cache"
	"github.com/radieske/odds-settlement-core/internal/shared/config"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
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

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Cache write-through das odds correntes e broadcaster do WS
	rcache := ingestcache.NewRedisCache(redisClient, 60*time.Second)
	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	// Consumer Kafka dos pedidos de ingestão (consumer group odds-ingest)
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "odds-ingest",
		Topic:    cfg.TopicIngestRequests,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	// Métricas Prometheus do ciclo de ingestão
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_ingest_requests_consumed_total", Help: "pedidos de ingestão consumidos"})
	written := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_ingest_rows_written_total", Help: "linhas gravadas na tabela corrente"})
	opening := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_ingest_opening_rows_total", Help: "linhas de abertura congeladas"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_ingest_skipped_total", Help: "ciclos pulados por motivo"}, []string{"reason"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_ingest_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, written, opening, skipped, errorsBy)

	writer := ingest.NewWriter(log, ingestrepo.NewPostgresRepo(pg))
	svc := &ingest.Service{
		Log:     log,
		Feed:    feed.New(cfg.FeedBaseURL, cfg.FeedAPIKey, cfg.FeedTimeout),
		Catalog: catalog.New(cfg.CatalogBaseURL, cfg.FeedTimeout),
		Writer:  writer,

		// Após persistir, atualiza o cache e publica para o WS da odds-api
		OnWritten: func(eventID string, rows []canonical.Row) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := rcache.SetCurrentRows(ctx, eventID, rows); err != nil {
				log.Warn("cache write-through failed", zap.String("event_id", eventID), zap.Error(err))
				errorsBy.WithLabelValues("cache").Inc()
			}

			b, _ := json.Marshal(pubsub.WSUpdate{EventID: eventID, Payload: rows})
			if err := broadcaster.Publish(ctx, cfg.RedisPubSubChannel, b); err != nil {
				log.Warn("ws broadcast publish failed", zap.String("event_id", eventID), zap.Error(err))
				errorsBy.WithLabelValues("broadcast").Inc()
			}
		},
	}

	// Servidor de métricas e health check
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	defer msrv.Close()

	// Shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("odds-ingest-worker started", zap.String("consume", cfg.TopicIngestRequests))

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

		var req events.IngestRequest
		if jerr := json.Unmarshal(msg.Value, &req); jerr != nil || req.EventID == "" {
			log.Error("unmarshal ingest request", zap.Error(jerr))
			errorsBy.WithLabelValues("decode").Inc()
			continue
		}

		runCtx, runCancel := context.WithTimeout(ctx, cfg.FeedTimeout+10*time.Second)
		sum, err := svc.IngestEventOdds(runCtx, req.EventID)
		runCancel()
		if err != nil {
			log.Error("ingest cycle", zap.String("event_id", req.EventID), zap.Error(err))
			errorsBy.WithLabelValues("ingest").Inc()
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
			continue
		}

		written.Add(float64(sum.WrittenCurrent))
		opening.Add(float64(sum.WrittenOpening))
		if sum.SkippedReason != "" {
			skipped.WithLabelValues(sum.SkippedReason).Inc()
		}
	}

	log.Info("odds-ingest-worker stopped")
}
