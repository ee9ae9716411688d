package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/odds-settlement-core/internal/canonical"
	"github.com/radieske/odds-settlement-core/internal/catalog"
)

// FeedClient é a fatia do feed de odds que a ingestão usa
type FeedClient interface {
	EventOdds(ctx context.Context, eventID string) (canonical.RawPayload, error)
}

// CatalogClient é a fatia do catálogo de jogos que a ingestão usa
type CatalogClient interface {
	EventSnapshot(ctx context.Context, eventID string) (catalog.Event, error)
}

// Summary é o retorno estruturado de IngestEventOdds.
// Falha de transporte vira SkippedReason + erro; progresso parcial
// (linhas descartadas, erros por linha) fica nos contadores.
type Summary struct {
	EventID        string                           `json:"eventId"`
	Attempted      int                              `json:"attempted"`
	WrittenCurrent int                              `json:"writtenCurrent"`
	WrittenOpening int                              `json:"writtenOpening"`
	Conflicts      int                              `json:"conflicts"`
	RowErrors      int                              `json:"rowErrors"`
	DroppedProps   int                              `json:"droppedProps"`
	ByClass        map[canonical.Classification]int `json:"byClass,omitempty"`
	SkippedReason  string                           `json:"skippedReason,omitempty"`
}

// Service orquestra um ciclo de ingestão por evento:
// snapshot do catálogo -> fetch do feed -> canonicalização -> writer.
type Service struct {
	Log     *zap.Logger
	Feed    FeedClient
	Catalog CatalogClient
	Writer  *Writer

	// OnWritten roda após escrita com sucesso na tabela current
	// (cache write-through e broadcast; falha lá não afeta a ingestão)
	OnWritten func(eventID string, rows []canonical.Row)
}

// IngestEventOdds executa o ciclo completo para um evento.
// Erro de feed/catálogo pula o evento inteiro, nunca aplica parcial,
// e devolve o motivo no sumário para o lote do chamador.
func (s *Service) IngestEventOdds(ctx context.Context, eventID string) (Summary, error) {
	sum := Summary{EventID: eventID}

	ev, err := s.Catalog.EventSnapshot(ctx, eventID)
	if err != nil {
		sum.SkippedReason = "catalog unavailable"
		return sum, fmt.Errorf("event %s: catalog snapshot: %w", eventID, err)
	}

	// Corte barato antes de gastar chamada no feed; o writer reavalia
	// o mesmo snapshot na hora de escrever.
	now := time.Now()
	if s.Writer.Now != nil {
		now = s.Writer.Now()
	}
	if ev.Started(now) {
		sum.SkippedReason = SkipReasonStarted
		return sum, nil
	}

	payload, err := s.Feed.EventOdds(ctx, eventID)
	if err != nil {
		sum.SkippedReason = "feed unavailable"
		return sum, fmt.Errorf("event %s: fetch odds: %w", eventID, err)
	}

	rows, dropped := canonical.Canonicalize(payload, now)
	for _, d := range dropped {
		s.Log.Warn("proposition dropped",
			zap.String("event_id", eventID),
			zap.String("odd_id", d.OddID),
			zap.String("reason", d.Reason),
		)
	}
	sum.DroppedProps = len(dropped)

	res := s.Writer.Write(ctx, ev, rows)
	sum.Attempted = res.Attempted
	sum.WrittenCurrent = res.WrittenCurrent
	sum.WrittenOpening = res.WrittenOpening
	sum.Conflicts = res.Conflicts
	sum.RowErrors = res.RowErrors
	sum.ByClass = res.ByClass
	sum.SkippedReason = res.SkippedReason

	if res.SkippedReason == "" && res.WrittenCurrent > 0 && s.OnWritten != nil {
		s.OnWritten(eventID, rows)
	}

	s.Log.Info("ingest cycle done",
		zap.String("event_id", eventID),
		zap.Int("attempted", sum.Attempted),
		zap.Int("written_current", sum.WrittenCurrent),
		zap.Int("written_opening", sum.WrittenOpening),
		zap.Int("conflicts", sum.Conflicts),
		zap.Int("dropped", sum.DroppedProps),
	)
	return sum, nil
}
