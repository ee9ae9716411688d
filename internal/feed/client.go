package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/radieske/odds-settlement-core/internal/canonical"
)

// Client consome o feed de odds upstream por HTTP.
// Toda chamada é limitada pelo timeout do http.Client; estouro ou status
// não-2xx é reportado ao chamador, que pula o evento e segue o lote.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// EventOdds busca o payload de mercados de um evento, incluindo as linhas
// alternativas de cada bookmaker.
func (c *Client) EventOdds(ctx context.Context, eventID string) (canonical.RawPayload, error) {
	return c.fetch(ctx, eventID, url.Values{
		"includeAltLines": {"true"},
	})
}

// EventResults busca o mesmo payload após o término do jogo, quando o feed
// preenche o campo score das proposições determinadas.
func (c *Client) EventResults(ctx context.Context, eventID string) (canonical.RawPayload, error) {
	return c.fetch(ctx, eventID, url.Values{
		"includeAltLines": {"true"},
		"finalized":       {"true"},
	})
}

func (c *Client) fetch(ctx context.Context, eventID string, q url.Values) (canonical.RawPayload, error) {
	if c.APIKey != "" {
		q.Set("apiKey", c.APIKey)
	}
	u := fmt.Sprintf("%s/v2/events/%s/odds?%s", c.BaseURL, url.PathEscape(eventID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return canonical.RawPayload{}, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return canonical.RawPayload{}, fmt.Errorf("odds feed request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return canonical.RawPayload{}, fmt.Errorf("odds feed http %d", res.StatusCode)
	}

	var payload canonical.RawPayload
	dec := json.NewDecoder(res.Body)
	dec.UseNumber() // linhas chegam como número ou string; preserva a forma exata
	if err := dec.Decode(&payload); err != nil {
		return canonical.RawPayload{}, fmt.Errorf("decode odds feed payload: %w", err)
	}
	if payload.EventID == "" {
		payload.EventID = eventID
	}
	return payload, nil
}
