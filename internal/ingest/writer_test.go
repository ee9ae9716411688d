package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/odds-settlement-core/internal/canonical"
	"github.com/radieske/odds-settlement-core/internal/catalog"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
)

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

// fakeStore implementa OddsStore em memória com a mesma semântica de
// conflito do banco: upsert na current, insert-once na opening.
type fakeStore struct {
	mu      sync.Mutex
	current map[string]canonical.Row
	opening map[string]canonical.Row

	failCurrent map[string]error // odd_id -> erro forçado
	failOpening map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		current: make(map[string]canonical.Row),
		opening: make(map[string]canonical.Row),
	}
}

func (f *fakeStore) UpsertCurrent(_ context.Context, row canonical.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failCurrent[row.OddID]; ok {
		return err
	}
	f.current[row.Key()] = row
	return nil
}

func (f *fakeStore) InsertOpening(_ context.Context, row canonical.Row) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOpening[row.OddID]; ok {
		return false, err
	}
	if _, exists := f.opening[row.Key()]; exists {
		return false, nil
	}
	f.opening[row.Key()] = row
	return true, nil
}

func scheduledEvent() catalog.Event {
	return catalog.Event{
		EventID:  "evt-1",
		Status:   catalog.StatusScheduled,
		StartsAt: testNow.Add(2 * time.Hour),
	}
}

func testRows(eventID string, n int) []canonical.Row {
	rows := make([]canonical.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, canonical.Row{
			EventID:    eventID,
			OddID:      fmt.Sprintf("points-all-game-ou-over-%d", i),
			MarketName: "Total Points",
			BetTypeID:  "ou",
			SideID:     "over",
			Class:      canonical.ClassMainLine,
			Prices:     map[string]string{"fanduel": "-110"},
			FetchedAt:  testNow,
		})
	}
	return rows
}

func newTestWriter(store OddsStore) *Writer {
	w := NewWriter(zap.NewNop(), store)
	w.Now = func() time.Time { return testNow }
	return w
}

func TestWriterSkipsStartedGames(t *testing.T) {
	tests := []struct {
		name string
		ev   catalog.Event
	}{
		{"status started", catalog.Event{EventID: "e", Status: catalog.StatusStarted, StartsAt: testNow.Add(time.Hour)}},
		{"status live", catalog.Event{EventID: "e", Status: catalog.StatusLive, StartsAt: testNow.Add(time.Hour)}},
		{"status final", catalog.Event{EventID: "e", Status: catalog.StatusFinal, StartsAt: testNow.Add(time.Hour)}},
		{"horário de início vencido", catalog.Event{EventID: "e", Status: catalog.StatusScheduled, StartsAt: testNow.Add(-time.Minute)}},
		{"início exatamente agora", catalog.Event{EventID: "e", Status: catalog.StatusScheduled, StartsAt: testNow}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			w := newTestWriter(store)

			res := w.Write(context.Background(), tt.ev, testRows("e", 3))

			if res.SkippedReason != SkipReasonStarted {
				t.Errorf("SkippedReason = %q, want %q", res.SkippedReason, SkipReasonStarted)
			}
			if res.WrittenCurrent != 0 || res.WrittenOpening != 0 {
				t.Errorf("evento iniciado não pode receber escrita: %+v", res)
			}
			if len(store.current) != 0 || len(store.opening) != 0 {
				t.Error("store recebeu linhas apesar do corte")
			}
		})
	}
}

func TestWriterDoubleCallIsIdempotent(t *testing.T) {
	store := newFakeStore()
	w := newTestWriter(store)
	rows := testRows("evt-1", 4)

	first := w.Write(context.Background(), scheduledEvent(), rows)
	second := w.Write(context.Background(), scheduledEvent(), rows)

	if first.WrittenCurrent != 4 || first.WrittenOpening != 4 {
		t.Fatalf("primeira chamada: %+v", first)
	}
	// segunda chamada atualiza a current mas não insere nada novo na opening
	if second.WrittenCurrent != 4 {
		t.Errorf("segunda chamada WrittenCurrent = %d, want 4", second.WrittenCurrent)
	}
	if second.WrittenOpening != 0 {
		t.Errorf("segunda chamada WrittenOpening = %d, want 0", second.WrittenOpening)
	}
	if len(store.opening) != 4 {
		t.Errorf("opening deve ter exatamente uma linha por chave: %d", len(store.opening))
	}
}

func TestWriterCountsConflictsWithoutFailing(t *testing.T) {
	store := newFakeStore()
	store.failCurrent = map[string]error{
		"points-all-game-ou-over-1": fmt.Errorf("%w: odds_current_key", db.ErrConflict),
	}
	w := newTestWriter(store)

	res := w.Write(context.Background(), scheduledEvent(), testRows("evt-1", 3))

	if res.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", res.Conflicts)
	}
	if res.RowErrors != 0 {
		t.Errorf("conflito não é erro: RowErrors = %d", res.RowErrors)
	}
	if res.WrittenCurrent != 2 {
		t.Errorf("WrittenCurrent = %d, want 2", res.WrittenCurrent)
	}
}

func TestWriterRowErrorDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	store.failOpening = map[string]error{
		"points-all-game-ou-over-0": errors.New("connection reset"),
	}
	w := newTestWriter(store)

	res := w.Write(context.Background(), scheduledEvent(), testRows("evt-1", 3))

	if res.RowErrors != 1 {
		t.Errorf("RowErrors = %d, want 1", res.RowErrors)
	}
	if res.WrittenOpening != 2 {
		t.Errorf("lote deve continuar após erro de linha: WrittenOpening = %d", res.WrittenOpening)
	}
	if res.WrittenCurrent != 3 {
		t.Errorf("passada da current é independente: WrittenCurrent = %d", res.WrittenCurrent)
	}
}

func TestWriterScheduledThenLiveScenario(t *testing.T) {
	store := newFakeStore()
	w := newTestWriter(store)
	rows := testRows("evt-1", 5)

	first := w.Write(context.Background(), scheduledEvent(), rows)
	if first.WrittenCurrent != 5 || first.WrittenOpening != 5 {
		t.Fatalf("primeiro ciclo: %+v", first)
	}

	live := scheduledEvent()
	live.Status = catalog.StatusLive
	second := w.Write(context.Background(), live, rows)

	if second.WrittenCurrent != 0 || second.WrittenOpening != 0 {
		t.Errorf("segundo ciclo ao vivo deve escrever zero linhas: %+v", second)
	}
	if len(store.opening) != 5 {
		t.Errorf("chaves de abertura já capturadas devem permanecer: %d", len(store.opening))
	}
}

func TestWriterClassBreakdown(t *testing.T) {
	store := newFakeStore()
	w := newTestWriter(store)

	line := "224.5"
	rows := []canonical.Row{
		{EventID: "e", OddID: "a", Class: canonical.ClassMainLine, Prices: map[string]string{"fanduel": "-110"}},
		{EventID: "e", OddID: "a", Line: &line, Class: canonical.ClassAlternateLine, Prices: map[string]string{"fanduel": "-130"}},
		{EventID: "e", OddID: "b", Class: canonical.ClassPlayerProp, Prices: map[string]string{"betmgm": "+100"}},
	}

	res := w.Write(context.Background(), scheduledEvent(), rows)

	if res.ByClass[canonical.ClassMainLine] != 1 ||
		res.ByClass[canonical.ClassAlternateLine] != 1 ||
		res.ByClass[canonical.ClassPlayerProp] != 1 {
		t.Errorf("quebra por classificação: %v", res.ByClass)
	}
}
