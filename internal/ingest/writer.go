package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/odds-settlement-core/internal/canonical"
	"github.com/radieske/odds-settlement-core/internal/catalog"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
)

// SkipReasonStarted é o motivo reportado quando o corte de início de jogo
// impede qualquer escrita para o evento.
const SkipReasonStarted = "game started"

// OddsStore abstrai as duas tabelas de odds.
// UpsertCurrent honra a unicidade de (event_id, odd_id, line) sobrescrevendo
// preços e timestamps; InsertOpening é insert-once: retorna false sem erro
// quando a chave já foi capturada.
type OddsStore interface {
	UpsertCurrent(ctx context.Context, row canonical.Row) error
	InsertOpening(ctx context.Context, row canonical.Row) (bool, error)
}

// WriteResult resume uma chamada do writer para observabilidade:
// linhas tentadas, escritas em cada tabela, conflitos absorvidos e
// a quebra por classificação.
type WriteResult struct {
	EventID        string                           `json:"eventId"`
	Attempted      int                              `json:"attempted"`
	WrittenCurrent int                              `json:"writtenCurrent"`
	WrittenOpening int                              `json:"writtenOpening"`
	Conflicts      int                              `json:"conflicts"`
	RowErrors      int                              `json:"rowErrors"`
	ByClass        map[canonical.Classification]int `json:"byClass"`
	SkippedReason  string                           `json:"skippedReason,omitempty"`
}

// Writer aplica lotes canônicos nas tabelas current e opening.
// Seguro para entrega at-least-once: chamadas repetidas com o mesmo lote
// produzem o mesmo estado persistido.
type Writer struct {
	Log   *zap.Logger
	Store OddsStore
	Now   func() time.Time // injetável em teste; default time.Now
}

func NewWriter(log *zap.Logger, store OddsStore) *Writer {
	return &Writer{Log: log, Store: store, Now: time.Now}
}

// Write decide elegibilidade e grava o lote de um evento.
//
// O corte de início de jogo é reavaliado a cada chamada: evento iniciado,
// ao vivo, encerrado ou com horário de início vencido não recebe escrita
// nenhuma: o ciclo inteiro é pulado, nunca aplicado parcialmente.
//
// As passadas sobre current e opening correm em paralelo: as tabelas são
// independentes e cada uma tem sua própria semântica de conflito. Conflito
// de unicidade é contado e absorvido; qualquer outro erro de store é fatal
// só para aquela linha, logado com a chave completa, e o lote segue.
func (w *Writer) Write(ctx context.Context, ev catalog.Event, rows []canonical.Row) WriteResult {
	res := WriteResult{
		EventID: ev.EventID,
		ByClass: make(map[canonical.Classification]int),
	}

	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	if ev.Started(now) {
		res.SkippedReason = SkipReasonStarted
		w.Log.Info("ingest skipped",
			zap.String("event_id", ev.EventID),
			zap.String("status", ev.Status),
			zap.Time("starts_at", ev.StartsAt),
		)
		return res
	}

	res.Attempted = len(rows)
	for _, r := range rows {
		res.ByClass[r.Class]++
	}

	var (
		wg  sync.WaitGroup
		cur struct{ written, conflicts, errors int }
		opn struct{ written, conflicts, errors int }
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		for _, row := range rows {
			err := db.ClassifyError(w.Store.UpsertCurrent(ctx, row))
			switch {
			case err == nil:
				cur.written++
			case db.IsConflict(err):
				cur.conflicts++
			default:
				cur.errors++
				w.Log.Error("current store write failed",
					zap.String("event_id", row.EventID),
					zap.String("odd_id", row.OddID),
					zap.String("line", canonical.LineKey(row.Line)),
					zap.Error(err),
				)
			}
		}
	}()

	go func() {
		defer wg.Done()
		for _, row := range rows {
			inserted, err := w.Store.InsertOpening(ctx, row)
			err = db.ClassifyError(err)
			switch {
			case err == nil && inserted:
				opn.written++
			case err == nil:
				// chave já capturada em ciclo anterior: sucesso silencioso
			case db.IsConflict(err):
				opn.conflicts++
			default:
				opn.errors++
				w.Log.Error("opening store write failed",
					zap.String("event_id", row.EventID),
					zap.String("odd_id", row.OddID),
					zap.String("line", canonical.LineKey(row.Line)),
					zap.Error(err),
				)
			}
		}
	}()

	wg.Wait()

	res.WrittenCurrent = cur.written
	res.WrittenOpening = opn.written
	res.Conflicts = cur.conflicts + opn.conflicts
	res.RowErrors = cur.errors + opn.errors
	return res
}
