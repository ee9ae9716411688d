package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/odds-settlement-core/internal/rollup"
	rolluprepo "github.com/radieske/odds-settlement-core/internal/rollup/repo"
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

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := rolluprepo.NewPostgres(pg)
	engine := rollup.NewEngine(log, repo)

	// Dois gatilhos de recálculo: aposta liquidada e vínculo alterado.
	// Cada tópico tem seu reader e goroutine; o lock advisory no banco
	// serializa recálculos concorrentes da mesma estratégia.
	settledReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "rollup",
		Topic:    cfg.TopicWagerSettled,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer settledReader.Close()

	linksReader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		GroupID:  "rollup",
		Topic:    cfg.TopicStrategyLinkChanged,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer linksReader.Close()

	// Métricas Prometheus do recálculo
	recomputed := prometheus.NewCounter(prometheus.CounterOpts{Name: "rollup_recomputed_total", Help: "rollups recomputados"})
	triggers := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rollup_triggers_total", Help: "gatilhos consumidos por origem"}, []string{"source"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rollup_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(recomputed, triggers, errorsBy)

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	defer msrv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recompute := func(strategyID string) {
		if _, err := engine.RecomputeStrategyRollup(ctx, strategyID); err != nil {
			log.Error("recompute rollup", zap.String("strategy_id", strategyID), zap.Error(err))
			errorsBy.WithLabelValues("recompute").Inc()
			return
		}
		recomputed.Inc()
	}

	log.Info("rollup-worker started",
		zap.String("consume_settled", cfg.TopicWagerSettled),
		zap.String("consume_links", cfg.TopicStrategyLinkChanged),
	)

	var wg sync.WaitGroup
	wg.Add(2)

	// wager_settled: a aposta pode pertencer a várias estratégias
	go func() {
		defer wg.Done()
		for {
			msg, err := settledReader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("kafka read wager_settled", zap.Error(err))
				errorsBy.WithLabelValues("consume").Inc()
				time.Sleep(time.Second)
				continue
			}
			triggers.WithLabelValues("wager_settled").Inc()

			var ev events.WagerSettled
			if jerr := json.Unmarshal(msg.Value, &ev); jerr != nil || ev.WagerID == "" {
				log.Error("unmarshal wager_settled", zap.Error(jerr))
				errorsBy.WithLabelValues("decode").Inc()
				continue
			}

			strategies, err := repo.StrategiesForWager(ctx, ev.WagerID)
			if err != nil {
				log.Error("resolve strategies", zap.String("wager_id", ev.WagerID), zap.Error(err))
				errorsBy.WithLabelValues("resolve").Inc()
				continue
			}
			for _, sid := range strategies {
				recompute(sid)
			}
		}
	}()

	// strategy_link_changed: o próprio evento já nomeia a estratégia
	go func() {
		defer wg.Done()
		for {
			msg, err := linksReader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("kafka read strategy_link_changed", zap.Error(err))
				errorsBy.WithLabelValues("consume").Inc()
				time.Sleep(time.Second)
				continue
			}
			triggers.WithLabelValues("strategy_link_changed").Inc()

			var ev events.StrategyLinkChanged
			if jerr := json.Unmarshal(msg.Value, &ev); jerr != nil || ev.StrategyID == "" {
				log.Error("unmarshal strategy_link_changed", zap.Error(jerr))
				errorsBy.WithLabelValues("decode").Inc()
				continue
			}
			recompute(ev.StrategyID)
		}
	}()

	wg.Wait()
	log.Info("rollup-worker stopped")
}
