package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/odds-settlement-core/internal/rollup"
)

// Postgres implementa rollup.Store.
// A serialização por estratégia usa pg_advisory_xact_lock sobre o hash do
// strategy_id: recálculos da mesma estratégia enfileiram, estratégias
// diferentes correm em paralelo. O lock cai junto com a transação.
type Postgres struct{ DB *sql.DB }

func NewPostgres(database *sql.DB) *Postgres { return &Postgres{DB: database} }

func (p *Postgres) RecomputeRollup(ctx context.Context, strategyID string, compute func([]rollup.WagerStat) rollup.Rollup) (rollup.Rollup, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return rollup.Rollup{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, strategyID); err != nil {
		return rollup.Rollup{}, fmt.Errorf("advisory lock: %w", err)
	}

	// Sempre do zero: vínculos joinados ao status corrente das apostas,
	// nunca o agregado anterior
	const q = `
		SELECT w.status, w.stake_cents, w.payout_cents
		FROM strategy_links sl
		JOIN wagers w ON w.id = sl.wager_id
		WHERE sl.strategy_id = $1
	`
	rows, err := tx.QueryContext(ctx, q, strategyID)
	if err != nil {
		return rollup.Rollup{}, err
	}

	var stats []rollup.WagerStat
	for rows.Next() {
		var s rollup.WagerStat
		if err := rows.Scan(&s.Status, &s.StakeCents, &s.PayoutCents); err != nil {
			rows.Close()
			return rollup.Rollup{}, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return rollup.Rollup{}, err
	}
	rows.Close()

	r := compute(stats)

	const upsert = `
		INSERT INTO strategy_rollups
		  (strategy_id, total_bets, settled_bets, winning_bets, losing_bets, push_bets,
		   win_rate, roi_percentage, last_calculated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (strategy_id) DO UPDATE SET
		  total_bets         = EXCLUDED.total_bets,
		  settled_bets       = EXCLUDED.settled_bets,
		  winning_bets       = EXCLUDED.winning_bets,
		  losing_bets        = EXCLUDED.losing_bets,
		  push_bets          = EXCLUDED.push_bets,
		  win_rate           = EXCLUDED.win_rate,
		  roi_percentage     = EXCLUDED.roi_percentage,
		  last_calculated_at = EXCLUDED.last_calculated_at
	`
	if _, err := tx.ExecContext(ctx, upsert,
		r.StrategyID, r.TotalBets, r.SettledBets, r.WinningBets, r.LosingBets, r.PushBets,
		r.WinRate, r.ROIPercentage, r.LastCalculatedAt,
	); err != nil {
		return rollup.Rollup{}, err
	}

	if err := tx.Commit(); err != nil {
		return rollup.Rollup{}, err
	}
	return r, nil
}

// StrategiesForWager lista as estratégias vinculadas a uma aposta.
// Usado pelo rollup-worker para resolver o fan-out de um wager_settled.
func (p *Postgres) StrategiesForWager(ctx context.Context, wagerID string) ([]string, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT strategy_id FROM strategy_links WHERE wager_id = $1`, wagerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
