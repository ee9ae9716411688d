package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/odds-settlement-core/internal/canonical"
	"github.com/radieske/odds-settlement-core/internal/catalog"
	cevents "github.com/radieske/odds-settlement-core/pkg/contracts/events"
)

// Store é o acesso a dados da liquidação.
// SettleWager é condicional em status='pending': execuções sobrepostas do
// mesmo evento nunca liquidam a mesma aposta duas vezes.
type Store interface {
	SettledRows(ctx context.Context, eventID string) ([]canonical.Row, error)
	PendingWagers(ctx context.Context, eventID string) ([]Wager, error)
	SettleWager(ctx context.Context, wagerID, outcome string, settledAt time.Time) (bool, error)
	UpdateSettledScore(ctx context.Context, eventID, oddID string, line *string, score float64) error
}

// ResultsFeed devolve o payload do evento com os scores preenchidos
type ResultsFeed interface {
	EventResults(ctx context.Context, eventID string) (canonical.RawPayload, error)
}

// CatalogClient é a fatia do catálogo usada pela liquidação
type CatalogClient interface {
	EventSnapshot(ctx context.Context, eventID string) (catalog.Event, error)
}

// Producer publica o evento de aposta liquidada (gatilho do rollup)
type Producer interface {
	PublishWagerSettled(ctx context.Context, e cevents.WagerSettled) error
}

// Summary resume um ciclo de liquidação. Unresolved não é erro: a aposta
// fica pendente e volta num ciclo futuro, quando houver mais dados.
type Summary struct {
	RunID          string   `json:"runId"`
	EventID        string   `json:"eventId"`
	ScoresSynced   int      `json:"scoresSynced"`
	Resolved       int      `json:"resolved"`
	Unresolved     int      `json:"unresolved"`
	AlreadySettled int      `json:"alreadySettled"`
	Errors         int      `json:"errors"`
	ErrorSamples   []string `json:"errorSamples,omitempty"`
	SkippedReason  string   `json:"skippedReason,omitempty"`
}

const maxErrorSamples = 5

// Service executa a liquidação por evento concluído
type Service struct {
	Log      *zap.Logger
	Store    Store
	Results  ResultsFeed
	Catalog  CatalogClient
	Producer Producer // opcional
	Now      func() time.Time
}

// SettleEventWagers liquida as apostas pendentes de um evento final.
//
// Passos: confirma finalidade no catálogo, sincroniza scores do feed de
// resultados nas linhas já persistidas, e então casa cada aposta pendente
// com exatamente uma linha (MatchRow) e deriva o resultado. Cada aposta
// resolvida é gravada condicionalmente e publicada; falha em uma aposta
// não aborta o lote.
func (s *Service) SettleEventWagers(ctx context.Context, eventID string) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), EventID: eventID}

	ev, err := s.Catalog.EventSnapshot(ctx, eventID)
	if err != nil {
		sum.SkippedReason = "catalog unavailable"
		return sum, fmt.Errorf("event %s: catalog snapshot: %w", eventID, err)
	}
	if !ev.Final() {
		sum.SkippedReason = "game not final"
		return sum, nil
	}

	sum.ScoresSynced = s.syncScores(ctx, eventID)

	rows, err := s.Store.SettledRows(ctx, eventID)
	if err != nil {
		return sum, fmt.Errorf("event %s: load settled rows: %w", eventID, err)
	}
	wagers, err := s.Store.PendingWagers(ctx, eventID)
	if err != nil {
		return sum, fmt.Errorf("event %s: load pending wagers: %w", eventID, err)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	for _, w := range wagers {
		row, ok := MatchRow(w, rows)
		if !ok {
			sum.Unresolved++
			s.Log.Info("wager unresolved, left pending",
				zap.String("run_id", sum.RunID),
				zap.String("wager_id", w.ID),
				zap.String("odd_id", w.OddID),
			)
			continue
		}

		outcome, err := DeriveOutcome(w, row)
		if err != nil {
			sum.Unresolved++
			s.Log.Info("wager outcome underivable, left pending",
				zap.String("run_id", sum.RunID),
				zap.String("wager_id", w.ID),
				zap.String("matched_odd_id", row.OddID),
				zap.Error(err),
			)
			continue
		}

		updated, err := s.Store.SettleWager(ctx, w.ID, outcome, now)
		if err != nil {
			sum.Errors++
			if len(sum.ErrorSamples) < maxErrorSamples {
				sum.ErrorSamples = append(sum.ErrorSamples, fmt.Sprintf("wager %s: %v", w.ID, err))
			}
			s.Log.Error("settle wager failed",
				zap.String("run_id", sum.RunID),
				zap.String("wager_id", w.ID),
				zap.Error(err),
			)
			continue
		}
		if !updated {
			// outra execução chegou primeiro; resultado já gravado
			sum.AlreadySettled++
			continue
		}
		sum.Resolved++

		if s.Producer != nil {
			settled := cevents.WagerSettled{
				WagerID:   w.ID,
				EventID:   w.EventID,
				UserID:    w.UserID,
				Status:    outcome,
				SettledAt: now,
			}
			if err := s.Producer.PublishWagerSettled(ctx, settled); err != nil {
				s.Log.Warn("publish wager_settled failed",
					zap.String("wager_id", w.ID),
					zap.Error(err),
				)
			}
		}
	}

	s.Log.Info("settlement cycle done",
		zap.String("run_id", sum.RunID),
		zap.String("event_id", eventID),
		zap.Int("resolved", sum.Resolved),
		zap.Int("unresolved", sum.Unresolved),
		zap.Int("already_settled", sum.AlreadySettled),
		zap.Int("errors", sum.Errors),
	)
	return sum, nil
}

// syncScores puxa o payload finalizado do feed e grava settled_score nas
// linhas correspondentes. Falha aqui não aborta a liquidação: as linhas
// podem já carregar score de um ciclo anterior.
func (s *Service) syncScores(ctx context.Context, eventID string) int {
	if s.Results == nil {
		return 0
	}
	payload, err := s.Results.EventResults(ctx, eventID)
	if err != nil {
		s.Log.Warn("results fetch failed, using stored scores",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return 0
	}

	synced := 0
	rows, _ := canonical.Canonicalize(payload, time.Now())
	for _, r := range rows {
		if r.SettledScore == nil {
			continue
		}
		if err := s.Store.UpdateSettledScore(ctx, eventID, r.OddID, r.Line, *r.SettledScore); err != nil {
			s.Log.Warn("score update failed",
				zap.String("event_id", eventID),
				zap.String("odd_id", r.OddID),
				zap.Error(err),
			)
			continue
		}
		synced++
	}
	return synced
}
