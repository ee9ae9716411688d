package settlement

import "time"

// Status de ciclo de vida de uma aposta
const (
	StatusPending = "pending"
	StatusWon     = "won"
	StatusLost    = "lost"
	StatusPush    = "push"
)

// Wager é a aposta registrada pelo usuário contra um evento.
// O matcher só muda status e timestamps de liquidação; o resto é imutável
// depois de liquidada.
type Wager struct {
	ID          string
	UserID      string
	EventID     string
	OddID       string
	Line        *string
	BetType     string // classificação declarada: "moneyline" | "spread" | "total" | ...
	StakeCents  int64
	OddValue    float64 // odd decimal tomada pelo usuário
	PayoutCents int64   // retorno potencial (stake incluso)
	Status      string
	SettledAt   *time.Time
}
