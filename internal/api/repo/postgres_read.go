package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/odds-settlement-core/internal/canonical"
	ingestrepo "github.com/radieske/odds-settlement-core/internal/ingest/repo"
	"github.com/radieske/odds-settlement-core/internal/rollup"
	"github.com/radieske/odds-settlement-core/internal/settlement"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
)

// ReadRepo atende as consultas da odds-api: snapshots de odds, rollups e
// escrita de apostas e vínculos. As leituras de odds reconstroem
// canonical.Row a partir das colunas por casa.
type ReadRepo struct {
	DB *sql.DB
}

func NewReadRepo(database *sql.DB) *ReadRepo { return &ReadRepo{DB: database} }

const oddsColumns = `
	event_id, odd_id, line, market_name, bet_type_id, side_id, class,
	fanduel_odds, draftkings_odds, betmgm_odds, caesars_odds, espnbet_odds, bet365_odds,
	settled_score, fetched_at
`

// CurrentOdds retorna o snapshot corrente do evento
func (r *ReadRepo) CurrentOdds(ctx context.Context, eventID string) ([]canonical.Row, error) {
	return r.oddsByEvent(ctx, "odds_current", eventID)
}

// OpeningOdds retorna as linhas de abertura congeladas do evento
func (r *ReadRepo) OpeningOdds(ctx context.Context, eventID string) ([]canonical.Row, error) {
	return r.oddsByEvent(ctx, "odds_opening", eventID)
}

func (r *ReadRepo) oddsByEvent(ctx context.Context, table, eventID string) ([]canonical.Row, error) {
	q := `SELECT ` + oddsColumns + ` FROM ` + table + `
		WHERE event_id = $1
		ORDER BY odd_id, COALESCE(line, '')`
	rows, err := r.DB.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []canonical.Row
	for rows.Next() {
		var (
			row    canonical.Row
			line   sql.NullString
			class  string
			score  sql.NullFloat64
			prices [6]sql.NullString
		)
		if err := rows.Scan(
			&row.EventID, &row.OddID, &line, &row.MarketName, &row.BetTypeID, &row.SideID, &class,
			&prices[0], &prices[1], &prices[2], &prices[3], &prices[4], &prices[5],
			&score, &row.FetchedAt,
		); err != nil {
			return nil, err
		}
		if line.Valid {
			v := line.String
			row.Line = &v
		}
		row.Class = canonical.Classification(class)
		if score.Valid {
			v := score.Float64
			row.SettledScore = &v
		}
		row.Prices = make(map[string]string)
		for i, book := range ingestrepo.Bookmakers {
			if prices[i].Valid {
				row.Prices[book] = prices[i].String
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// RollupByStrategy lê o agregado persistido; sql.ErrNoRows quando a
// estratégia nunca foi recalculada
func (r *ReadRepo) RollupByStrategy(ctx context.Context, strategyID string) (rollup.Rollup, error) {
	const q = `
		SELECT strategy_id, total_bets, settled_bets, winning_bets, losing_bets, push_bets,
		       win_rate, roi_percentage, last_calculated_at
		FROM strategy_rollups
		WHERE strategy_id = $1
	`
	var out rollup.Rollup
	err := r.DB.QueryRowContext(ctx, q, strategyID).Scan(
		&out.StrategyID, &out.TotalBets, &out.SettledBets, &out.WinningBets,
		&out.LosingBets, &out.PushBets, &out.WinRate, &out.ROIPercentage,
		&out.LastCalculatedAt,
	)
	return out, err
}

// CreateWager registra uma aposta importada com status pendente
func (r *ReadRepo) CreateWager(ctx context.Context, w settlement.Wager) error {
	const q = `
		INSERT INTO wagers
		  (id, user_id, event_id, odd_id, line, bet_type, stake_cents, odd_value, payout_cents, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'pending',now(),now())
	`
	var line sql.NullString
	if w.Line != nil {
		line = sql.NullString{String: *w.Line, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, q,
		w.ID, w.UserID, w.EventID, w.OddID, line, w.BetType,
		w.StakeCents, w.OddValue, w.PayoutCents)
	return db.ClassifyError(err)
}

// LinkWager cria o vínculo estratégia→aposta; linked=false quando o
// vínculo já existia
func (r *ReadRepo) LinkWager(ctx context.Context, strategyID, wagerID string) (bool, error) {
	const q = `
		INSERT INTO strategy_links (strategy_id, wager_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (strategy_id, wager_id) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, q, strategyID, wagerID)
	if err != nil {
		return false, db.ClassifyError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UnlinkWager remove o vínculo; removed=false quando não existia
func (r *ReadRepo) UnlinkWager(ctx context.Context, strategyID, wagerID string) (bool, error) {
	const q = `DELETE FROM strategy_links WHERE strategy_id = $1 AND wager_id = $2`
	res, err := r.DB.ExecContext(ctx, q, strategyID, wagerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
