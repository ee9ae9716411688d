package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/odds-settlement-core/internal/api/repo"
	"github.com/radieske/odds-settlement-core/internal/api/ws"
	"github.com/radieske/odds-settlement-core/internal/canonical"
	"github.com/radieske/odds-settlement-core/internal/ingest"
	ingestcache "github.com/radieske/odds-settlement-core/internal/ingest/cache"
	"github.com/radieske/odds-settlement-core/internal/rollup"
	"github.com/radieske/odds-settlement-core/internal/settlement"
	"github.com/radieske/odds-settlement-core/internal/shared/db"
	"github.com/radieske/odds-settlement-core/pkg/contracts/events"
)

// Publisher publica os eventos originados na API: mudanças de vínculo
// para o rollup-worker e pedidos de ingestão para o odds-ingest-worker.
type Publisher interface {
	PublishStrategyLinkChanged(ctx context.Context, e events.StrategyLinkChanged) error
	PublishIngestRequest(ctx context.Context, e events.IngestRequest) error
}

// API expõe os endpoints REST da odds-api: consulta de odds (cache
// primeiro, banco depois), rollups, importação de apostas, vínculos de
// estratégia e gatilhos administrativos dos pipelines.
type API struct {
	Log      *zap.Logger
	ReadRepo *repo.ReadRepo
	Cache    *ingestcache.RedisCache
	Ingest   *ingest.Service
	Settle   *settlement.Service
	Rollups  *rollup.Engine
	Events   Publisher
	League   string
	Hub      *ws.Hub
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/events/{id}/odds", a.getCurrentOdds)
	r.Get("/v1/events/{id}/odds/opening", a.getOpeningOdds)
	r.Get("/v1/strategies/{id}/rollup", a.getRollup)
	r.Post("/v1/wagers", a.createWager)
	r.Post("/v1/strategies/{id}/links", a.linkWager)
	r.Delete("/v1/strategies/{id}/links/{wagerId}", a.unlinkWager)
	r.Post("/v1/admin/events/{id}/ingest", a.triggerIngest)
	r.Post("/v1/admin/events/{id}/settle", a.triggerSettle)
	r.Post("/v1/admin/strategies/{id}/rollup", a.triggerRollup)
	r.Get("/ws", a.Hub.HandleWS)
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// getCurrentOdds retorna o snapshot corrente, preferencialmente do cache
func (a *API) getCurrentOdds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if rows, found, err := a.Cache.GetCurrentRows(r.Context(), id); err == nil && found {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	rows, err := a.ReadRepo.CurrentOdds(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	_ = a.Cache.SetCurrentRows(r.Context(), id, rows)
	writeJSON(w, http.StatusOK, rows)
}

// getOpeningOdds retorna as linhas de abertura congeladas do evento
func (a *API) getOpeningOdds(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rows, err := a.ReadRepo.OpeningOdds(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if len(rows) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// getRollup retorna o agregado persistido da estratégia
func (a *API) getRollup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	out, err := a.ReadRepo.RollupByStrategy(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateWagerRequest é o corpo de importação de uma aposta
type CreateWagerRequest struct {
	UserID     string  `json:"userId"`
	EventID    string  `json:"eventId"`
	OddID      string  `json:"oddId"`
	Line       *string `json:"line,omitempty"`
	BetType    string  `json:"betType,omitempty"`
	StakeCents int64   `json:"stakeCents"`
	OddValue   float64 `json:"oddValue"`
}

// CreateWagerResponse confirma a importação
type CreateWagerResponse struct {
	WagerID string `json:"wagerId"`
	Status  string `json:"status"`
}

func (a *API) createWager(w http.ResponseWriter, r *http.Request) {
	var req CreateWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.EventID == "" || req.OddID == "" || req.StakeCents <= 0 || req.OddValue <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var line *string
	if req.Line != nil {
		line = canonical.NormalizeLine(*req.Line)
	}
	wg := settlement.Wager{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		EventID:     req.EventID,
		OddID:       req.OddID,
		Line:        line,
		BetType:     req.BetType,
		StakeCents:  req.StakeCents,
		OddValue:    req.OddValue,
		PayoutCents: int64(float64(req.StakeCents) * req.OddValue),
		Status:      settlement.StatusPending,
	}
	if err := a.ReadRepo.CreateWager(r.Context(), wg); err != nil {
		if db.IsConflict(err) {
			http.Error(w, "wager already exists", http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, CreateWagerResponse{WagerID: wg.ID, Status: wg.Status})
}

// LinkRequest é o corpo de criação de vínculo estratégia→aposta
type LinkRequest struct {
	WagerID string `json:"wagerId"`
}

func (a *API) linkWager(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "id")

	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.WagerID == "" {
		http.Error(w, "wagerId required", http.StatusBadRequest)
		return
	}

	linked, err := a.ReadRepo.LinkWager(r.Context(), strategyID, req.WagerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if linked && a.Events != nil {
		if err := a.Events.PublishStrategyLinkChanged(r.Context(), events.StrategyLinkChanged{
			StrategyID: strategyID,
			WagerID:    req.WagerID,
			Action:     events.LinkActionLinked,
			ChangedAt:  time.Now().UTC(),
		}); err != nil {
			a.Log.Warn("publish link changed failed",
				zap.String("strategy_id", strategyID),
				zap.String("wager_id", req.WagerID),
				zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"strategyId": strategyID, "wagerId": req.WagerID, "linked": linked})
}

func (a *API) unlinkWager(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "id")
	wagerID := chi.URLParam(r, "wagerId")

	removed, err := a.ReadRepo.UnlinkWager(r.Context(), strategyID, wagerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "link not found"})
		return
	}
	if a.Events != nil {
		if err := a.Events.PublishStrategyLinkChanged(r.Context(), events.StrategyLinkChanged{
			StrategyID: strategyID,
			WagerID:    wagerID,
			Action:     events.LinkActionUnlinked,
			ChangedAt:  time.Now().UTC(),
		}); err != nil {
			a.Log.Warn("publish link changed failed",
				zap.String("strategy_id", strategyID),
				zap.String("wager_id", wagerID),
				zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"strategyId": strategyID, "wagerId": wagerID, "linked": false})
}

// triggerIngest dispara a ingestão do evento. Com ?async=1 o pedido é
// enfileirado para o odds-ingest-worker; sem, o ciclo roda inline e a
// resposta traz o sumário.
func (a *API) triggerIngest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if r.URL.Query().Get("async") != "" && a.Events != nil {
		err := a.Events.PublishIngestRequest(r.Context(), events.IngestRequest{
			EventID:     id,
			League:      a.League,
			RequestedAt: time.Now().UTC(),
			Source:      "admin-api",
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"eventId": id, "status": "queued"})
		return
	}

	sum, err := a.Ingest.IngestEventOdds(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "summary": sum})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// triggerSettle roda a liquidação síncrona das apostas do evento
func (a *API) triggerSettle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sum, err := a.Settle.SettleEventWagers(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "summary": sum})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// triggerRollup recomputa o agregado da estratégia do zero
func (a *API) triggerRollup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	out, err := a.Rollups.RecomputeStrategyRollup(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}
