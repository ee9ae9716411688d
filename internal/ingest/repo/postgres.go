package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/odds-settlement-core/internal/canonical"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
)

// Bookmakers são as casas com coluna própria nas tabelas de odds.
// Preço de casa fora da lista é ignorado na persistência.
var Bookmakers = []string{"fanduel", "draftkings", "betmgm", "caesars", "espnbet", "bet365"}

// PostgresRepo implementa OddsStore sobre as tabelas odds_current e
// odds_opening. A unicidade de (event_id, odd_id, line) é nativa do banco:
// índice único sobre COALESCE(line, '') mais resolução ON CONFLICT, para
// que ciclos concorrentes do mesmo evento nunca dupliquem linha.
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(database *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: database}
}

// UpsertCurrent insere ou atualiza uma linha na tabela corrente.
// Em conflito de chave, sobrescreve preços, score e timestamps, nunca a
// identidade da linha.
func (r *PostgresRepo) UpsertCurrent(ctx context.Context, row canonical.Row) error {
	const q = `
		INSERT INTO odds_current
		  (event_id, odd_id, line, market_name, bet_type_id, side_id, class,
		   fanduel_odds, draftkings_odds, betmgm_odds, caesars_odds, espnbet_odds, bet365_odds,
		   settled_score, fetched_at, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now())
		ON CONFLICT (event_id, odd_id, (COALESCE(line, ''))) DO UPDATE SET
		  market_name      = EXCLUDED.market_name,
		  fanduel_odds     = EXCLUDED.fanduel_odds,
		  draftkings_odds  = EXCLUDED.draftkings_odds,
		  betmgm_odds      = EXCLUDED.betmgm_odds,
		  caesars_odds     = EXCLUDED.caesars_odds,
		  espnbet_odds     = EXCLUDED.espnbet_odds,
		  bet365_odds      = EXCLUDED.bet365_odds,
		  settled_score    = COALESCE(EXCLUDED.settled_score, odds_current.settled_score),
		  fetched_at       = EXCLUDED.fetched_at,
		  updated_at       = now()
	`
	args := rowArgs(row)
	_, err := r.DB.ExecContext(ctx, q, args...)
	return db.ClassifyError(err)
}

// InsertOpening oferece a linha à tabela de abertura (insert-once).
// Conflito na chave não é erro: a primeira observação é permanente e a
// chamada reporta inserted=false.
func (r *PostgresRepo) InsertOpening(ctx context.Context, row canonical.Row) (bool, error) {
	const q = `
		INSERT INTO odds_opening
		  (event_id, odd_id, line, market_name, bet_type_id, side_id, class,
		   fanduel_odds, draftkings_odds, betmgm_odds, caesars_odds, espnbet_odds, bet365_odds,
		   settled_score, fetched_at, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now())
		ON CONFLICT (event_id, odd_id, (COALESCE(line, ''))) DO NOTHING
	`
	args := rowArgs(row)
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return false, db.ClassifyError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func rowArgs(row canonical.Row) []any {
	args := []any{
		row.EventID,
		row.OddID,
		nullStr(row.Line),
		row.MarketName,
		row.BetTypeID,
		row.SideID,
		string(row.Class),
	}
	for _, book := range Bookmakers {
		if price, ok := row.Prices[book]; ok {
			args = append(args, sql.NullString{String: price, Valid: true})
		} else {
			args = append(args, sql.NullString{})
		}
	}
	args = append(args, nullFloat(row.SettledScore), row.FetchedAt)
	return args
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
