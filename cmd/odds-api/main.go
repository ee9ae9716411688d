package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/radieske/odds-settlement-core/internal/api/http"
	apiproducer "github.com/radieske/odds-settlement-core/internal/api/producer"
	apirepo "github.com/radieske/odds-settlement-core/internal/api/repo"
	"github.com/radieske/odds-settlement-core/internal/api/ws"
	"github.com/radieske/odds-settlement-core/internal/catalog"
	"github.com/radieske/odds-settlement-core/internal/feed"
	"github.com/radieske/odds-settlement-core/internal/ingest"
	ingestcache "github.com/radieske/odds-settlement-core/internal/ingest/cache"
	ingestrepo "github.com/radieske/odds-settlement-core/internal/ingest/repo"
	"github.com/radieske/odds-settlement-core/internal/rollup"
	rolluprepo "github.com/radieske/odds-settlement-core/internal/rollup/repo"
	"github.com/radieske/odds-settlement-core/internal/settlement"
	settlementproducer "github.com/radieske/odds-settlement-core/internal/settlement/producer"
	settlementrepo "github.com/radieske/odds-settlement-core/internal/settlement/repo"
	sharedcache "github.com/radieske/odds-settlement-core/internal/shared/cache"
	"github.com/radieske/odds-settlement-core/internal/shared/config"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
	"github.com/radieske/odds-settlement-core/internal/shared/kafka"
	"github.com/radieske/odds-settlement-core/internal/shared/logger"
	"github.com/radieske/odds-settlement-core/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

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

	// Producers dos eventos originados na API
	linksWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicStrategyLinkChanged)
	defer linksWriter.Close()
	ingestWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicIngestRequests)
	defer ingestWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer settledWriter.Close()

	// Pipelines síncronos para os gatilhos administrativos
	feedClient := feed.New(cfg.FeedBaseURL, cfg.FeedAPIKey, cfg.FeedTimeout)
	catalogClient := catalog.New(cfg.CatalogBaseURL, cfg.FeedTimeout)
	rcache := ingestcache.NewRedisCache(redisClient, 60*time.Second)

	ingestSvc := &ingest.Service{
		Log:     log,
		Feed:    feedClient,
		Catalog: catalogClient,
		Writer:  ingest.NewWriter(log, ingestrepo.NewPostgresRepo(pg)),
	}
	settleSvc := &settlement.Service{
		Log:      log,
		Store:    settlementrepo.NewPostgres(pg),
		Results:  feedClient,
		Catalog:  catalogClient,
		Producer: settlementproducer.NewKafkaPublisher(settledWriter),
		Now:      time.Now,
	}
	rollupEngine := rollup.NewEngine(log, rolluprepo.NewPostgres(pg))

	// Hub WebSocket alimentado pelo Redis Pub/Sub da ingestão
	hub := ws.NewHub(func(r *http.Request) bool { return true })

	api := &httpapi.API{
		Log:      log,
		ReadRepo: apirepo.NewReadRepo(pg),
		Cache:    rcache,
		Ingest:   ingestSvc,
		Settle:   settleSvc,
		Rollups:  rollupEngine,
		Events:   apiproducer.NewKafkaPublisher(linksWriter, ingestWriter),
		League:   cfg.DefaultLeague,
		Hub:      hub,
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	defer msrv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ws.StartRedisSubscriber(ctx, log, redisClient, cfg.RedisPubSubChannel, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	go func() {
		log.Info("http server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info("odds-api stopped")
}
