package events

import "time"

// Evento emitido pelo settlement-worker após liquidar uma aposta.
// Consumido pelo rollup-worker para recalcular as estratégias afetadas.
type WagerSettled struct {
	WagerID   string    `json:"wager_id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"` // "won" | "lost" | "push"
	SettledAt time.Time `json:"settled_at"`
}
