package events

import "time"

const (
	LinkActionLinked   = "linked"
	LinkActionUnlinked = "unlinked"
)

// Evento emitido quando uma aposta é vinculada ou desvinculada de uma
// estratégia. Dispara o recálculo do rollup da estratégia.
type StrategyLinkChanged struct {
	StrategyID string    `json:"strategy_id"`
	WagerID    string    `json:"wager_id"`
	Action     string    `json:"action"` // "linked" | "unlinked"
	ChangedAt  time.Time `json:"changed_at"`
}
