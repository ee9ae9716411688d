package events

import "time"

// Pedido de ingestão publicado no tópico "odds_ingest_requests".
// O disparo (cron, admin, retry) pertence a quem publica; o worker
// apenas executa o ciclo de ingestão para o evento pedido.
type IngestRequest struct {
	EventID     string    `json:"event_id"`
	League      string    `json:"league"` // ex: "NBA", "MLB"
	RequestedAt time.Time `json:"requested_at"`
	Source      string    `json:"source"` // "admin-api" | "scheduler" | ...
}
