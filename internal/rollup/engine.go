package rollup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store executa o recálculo contra o banco.
// RecomputeRollup lê os vínculos estratégia→aposta e persiste o agregado
// devolvido por compute dentro de uma transação serializada por estratégia,
// de modo que recálculos concorrentes da mesma estratégia não intercalem
// leituras parciais. O agregado anterior nunca entra como insumo.
type Store interface {
	RecomputeRollup(ctx context.Context, strategyID string, compute func([]WagerStat) Rollup) (Rollup, error)
}

// Engine recomputa o rollup de uma estratégia sob demanda.
// Seguro para invocação redundante: o resultado só depende dos vínculos.
type Engine struct {
	Log   *zap.Logger
	Store Store
	Now   func() time.Time
}

func NewEngine(log *zap.Logger, store Store) *Engine {
	return &Engine{Log: log, Store: store, Now: time.Now}
}

// RecomputeStrategyRollup refaz o agregado inteiro da estratégia
func (e *Engine) RecomputeStrategyRollup(ctx context.Context, strategyID string) (Rollup, error) {
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}

	r, err := e.Store.RecomputeRollup(ctx, strategyID, func(stats []WagerStat) Rollup {
		return Compute(strategyID, stats, now)
	})
	if err != nil {
		return Rollup{}, fmt.Errorf("strategy %s: recompute rollup: %w", strategyID, err)
	}

	e.Log.Info("rollup recomputed",
		zap.String("strategy_id", strategyID),
		zap.Int("total_bets", r.TotalBets),
		zap.Int("winning", r.WinningBets),
		zap.Int("losing", r.LosingBets),
		zap.Int("push", r.PushBets),
		zap.Float64("win_rate", r.WinRate),
		zap.Float64("roi_pct", r.ROIPercentage),
	)
	return r, nil
}
