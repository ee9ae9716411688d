package events

import "time"

// Evento publicado no tópico "game_final" quando o catálogo observa
// o término de um jogo. Dispara o ciclo de liquidação do evento.
type GameFinal struct {
	EventID   string    `json:"event_id"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	FinalAt   time.Time `json:"final_at"`
	Source    string    `json:"source"`
}
