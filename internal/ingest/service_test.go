package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/odds-settlement-core/internal/canonical"
	"github.com/radieske/odds-settlement-core/internal/catalog"
)

type fakeFeed struct {
	payload canonical.RawPayload
	err     error
	calls   int
}

func (f *fakeFeed) EventOdds(context.Context, string) (canonical.RawPayload, error) {
	f.calls++
	return f.payload, f.err
}

type fakeCatalog struct {
	ev  catalog.Event
	err error
}

func (f *fakeCatalog) EventSnapshot(context.Context, string) (catalog.Event, error) {
	return f.ev, f.err
}

func newTestService(feed *fakeFeed, cat *fakeCatalog, store OddsStore) *Service {
	return &Service{
		Log:     zap.NewNop(),
		Feed:    feed,
		Catalog: cat,
		Writer:  newTestWriter(store),
	}
}

func TestIngestEventOddsHappyPath(t *testing.T) {
	feed := &fakeFeed{payload: canonical.RawPayload{
		EventID: "evt-1",
		Odds: map[string]canonical.RawMarket{
			"points-home-game-ml-home": {
				OddID:      "points-home-game-ml-home",
				MarketName: "Moneyline",
				BetTypeID:  "ml",
				SideID:     "home",
				ByBook:     map[string]canonical.RawQuote{"fanduel": {Odds: "-150"}},
			},
		},
	}}
	cat := &fakeCatalog{ev: scheduledEvent()}
	store := newFakeStore()

	var hookRows int
	svc := newTestService(feed, cat, store)
	svc.OnWritten = func(_ string, rows []canonical.Row) { hookRows = len(rows) }

	sum, err := svc.IngestEventOdds(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.WrittenCurrent != 1 || sum.WrittenOpening != 1 {
		t.Errorf("summary: %+v", sum)
	}
	if hookRows != 1 {
		t.Errorf("hook OnWritten não recebeu as linhas: %d", hookRows)
	}
}

func TestIngestEventOddsSkipsStartedWithoutFeedCall(t *testing.T) {
	feed := &fakeFeed{}
	cat := &fakeCatalog{ev: catalog.Event{
		EventID:  "evt-1",
		Status:   catalog.StatusLive,
		StartsAt: testNow.Add(-time.Hour),
	}}

	svc := newTestService(feed, cat, newFakeStore())
	sum, err := svc.IngestEventOdds(context.Background(), "evt-1")

	if err != nil {
		t.Fatalf("corte não é erro: %v", err)
	}
	if sum.SkippedReason != SkipReasonStarted {
		t.Errorf("SkippedReason = %q", sum.SkippedReason)
	}
	if feed.calls != 0 {
		t.Error("evento iniciado não deve gastar chamada no feed")
	}
}

func TestIngestEventOddsFeedFailureSkipsWholeEvent(t *testing.T) {
	feed := &fakeFeed{err: errors.New("timeout")}
	cat := &fakeCatalog{ev: scheduledEvent()}
	store := newFakeStore()

	svc := newTestService(feed, cat, store)
	sum, err := svc.IngestEventOdds(context.Background(), "evt-1")

	if err == nil {
		t.Fatal("falha de transporte deve ser reportada")
	}
	if sum.SkippedReason != "feed unavailable" {
		t.Errorf("SkippedReason = %q", sum.SkippedReason)
	}
	if len(store.current) != 0 || len(store.opening) != 0 {
		t.Error("falha de feed não pode deixar escrita parcial")
	}
}

func TestIngestEventOddsCatalogFailure(t *testing.T) {
	feed := &fakeFeed{}
	cat := &fakeCatalog{err: errors.New("503")}

	svc := newTestService(feed, cat, newFakeStore())
	sum, err := svc.IngestEventOdds(context.Background(), "evt-1")

	if err == nil {
		t.Fatal("falha de catálogo deve ser reportada")
	}
	if sum.SkippedReason != "catalog unavailable" {
		t.Errorf("SkippedReason = %q", sum.SkippedReason)
	}
	if feed.calls != 0 {
		t.Error("sem snapshot do catálogo não há fetch de odds")
	}
}

func TestIngestEventOddsReportsDroppedProps(t *testing.T) {
	feed := &fakeFeed{payload: canonical.RawPayload{
		EventID: "evt-1",
		Odds: map[string]canonical.RawMarket{
			"ok": {
				OddID:     "points-all-game-ou-over",
				BetTypeID: "ou",
				SideID:    "over",
				ByBook:    map[string]canonical.RawQuote{"fanduel": {Odds: "-110"}},
			},
			"broken": {OddID: "assists-all-game-ou-over"}, // sem preços
		},
	}}
	cat := &fakeCatalog{ev: scheduledEvent()}

	svc := newTestService(feed, cat, newFakeStore())
	sum, err := svc.IngestEventOdds(context.Background(), "evt-1")

	if err != nil {
		t.Fatalf("defeito de forma em uma proposição não derruba o lote: %v", err)
	}
	if sum.DroppedProps != 1 {
		t.Errorf("DroppedProps = %d, want 1", sum.DroppedProps)
	}
	if sum.WrittenCurrent != 1 {
		t.Errorf("WrittenCurrent = %d, want 1", sum.WrittenCurrent)
	}
}
