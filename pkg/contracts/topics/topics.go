package topics

const (
	// Ingestão de odds
	OddsIngestRequests = "odds_ingest_requests"

	// Liquidação
	GameFinal    = "game_final"
	WagerSettled = "wager_settled"

	// Estratégias
	StrategyLinkChanged = "strategy_link_changed"

	// DLQs
	GameFinalDLQ = "game_final_dlq"
)
