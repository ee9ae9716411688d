package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Status de ciclo de vida de um evento no catálogo de jogos.
const (
	StatusScheduled = "scheduled"
	StatusStarted   = "started"
	StatusLive      = "live"
	StatusFinal     = "final"
)

// Event é o snapshot de ciclo de vida que o catálogo expõe por evento.
// O core só lê: criação e atualização pertencem ao feed de catálogo.
type Event struct {
	EventID   string    `json:"eventId"`
	League    string    `json:"league"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	Status    string    `json:"status"`
	StartsAt  time.Time `json:"startsAt"`
	HomeScore *int      `json:"homeScore,omitempty"`
	AwayScore *int      `json:"awayScore,omitempty"`
}

// Started informa se o evento já começou (status ou horário de início).
// O corte de ingestão usa exatamente esta regra, reavaliada a cada chamada.
func (e Event) Started(now time.Time) bool {
	switch e.Status {
	case StatusStarted, StatusLive, StatusFinal:
		return true
	}
	return !e.StartsAt.After(now)
}

// Final informa se o jogo terminou
func (e Event) Final() bool { return e.Status == StatusFinal }

// Client consome o serviço de catálogo de jogos por HTTP com timeout curto
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// EventSnapshot busca o estado atual de um evento
func (c *Client) EventSnapshot(ctx context.Context, eventID string) (Event, error) {
	u := fmt.Sprintf("%s/v1/games/%s", c.BaseURL, url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Event{}, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Event{}, fmt.Errorf("catalog request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Event{}, fmt.Errorf("catalog http %d", res.StatusCode)
	}

	var ev Event
	if err := json.NewDecoder(res.Body).Decode(&ev); err != nil {
		return Event{}, fmt.Errorf("decode catalog event: %w", err)
	}
	if ev.EventID == "" {
		ev.EventID = eventID
	}
	return ev, nil
}
