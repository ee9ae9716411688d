package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/radieske/odds-settlement-core/internal/canonical"
	ingestrepo "github.com/radieske/odds-settlement-core/internal/ingest/repo"
	"github.com/radieske/odds-settlement-core/internal/settlement"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
)

// Postgres implementa settlement.Store sobre odds_current e wagers
type Postgres struct{ DB *sql.DB }

func NewPostgres(database *sql.DB) *Postgres { return &Postgres{DB: database} }

// SettledRows retorna as linhas do evento que já carregam settled_score
func (p *Postgres) SettledRows(ctx context.Context, eventID string) ([]canonical.Row, error) {
	const q = `
		SELECT event_id, odd_id, line, market_name, bet_type_id, side_id, class,
		       fanduel_odds, draftkings_odds, betmgm_odds, caesars_odds, espnbet_odds, bet365_odds,
		       settled_score, fetched_at
		FROM odds_current
		WHERE event_id = $1 AND settled_score IS NOT NULL
		ORDER BY odd_id, COALESCE(line, '')
	`
	rows, err := p.DB.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []canonical.Row
	for rows.Next() {
		var (
			r      canonical.Row
			line   sql.NullString
			class  string
			score  sql.NullFloat64
			prices [6]sql.NullString
		)
		if err := rows.Scan(
			&r.EventID, &r.OddID, &line, &r.MarketName, &r.BetTypeID, &r.SideID, &class,
			&prices[0], &prices[1], &prices[2], &prices[3], &prices[4], &prices[5],
			&score, &r.FetchedAt,
		); err != nil {
			return nil, err
		}
		if line.Valid {
			v := line.String
			r.Line = &v
		}
		r.Class = canonical.Classification(class)
		if score.Valid {
			v := score.Float64
			r.SettledScore = &v
		}
		r.Prices = make(map[string]string)
		for i, book := range ingestrepo.Bookmakers {
			if prices[i].Valid {
				r.Prices[book] = prices[i].String
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PendingWagers retorna as apostas pendentes de um evento
func (p *Postgres) PendingWagers(ctx context.Context, eventID string) ([]settlement.Wager, error) {
	const q = `
		SELECT id, user_id, event_id, odd_id, line, bet_type, stake_cents, odd_value, payout_cents, status
		FROM wagers
		WHERE event_id = $1 AND status = 'pending'
		ORDER BY id
	`
	rows, err := p.DB.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Wager
	for rows.Next() {
		var (
			w    settlement.Wager
			line sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.UserID, &w.EventID, &w.OddID, &line,
			&w.BetType, &w.StakeCents, &w.OddValue, &w.PayoutCents, &w.Status); err != nil {
			return nil, err
		}
		if line.Valid {
			v := line.String
			w.Line = &v
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SettleWager grava o resultado condicionado a status='pending'.
// updated=false significa que outra execução liquidou antes.
func (p *Postgres) SettleWager(ctx context.Context, wagerID, outcome string, settledAt time.Time) (bool, error) {
	const q = `
		UPDATE wagers
		SET status = $2, settled_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`
	res, err := p.DB.ExecContext(ctx, q, wagerID, outcome, settledAt)
	if err != nil {
		return false, db.ClassifyError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateSettledScore grava o resultado numérico da proposição na linha
// corrente. Só toca a coluna de score: o corte de início de jogo cobre
// linhas e preços novos, não o resultado.
func (p *Postgres) UpdateSettledScore(ctx context.Context, eventID, oddID string, line *string, score float64) error {
	const q = `
		UPDATE odds_current
		SET settled_score = $4, updated_at = now()
		WHERE event_id = $1 AND odd_id = $2 AND COALESCE(line, '') = $3
	`
	_, err := p.DB.ExecContext(ctx, q, eventID, oddID, canonical.LineKey(line), score)
	return err
}
