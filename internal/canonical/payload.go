package canonical

// RawPayload é o retorno do feed de odds para um único evento:
// um mapa de chave de proposição ("oddID") para os metadados do mercado.
type RawPayload struct {
	EventID string               `json:"eventId"`
	Odds    map[string]RawMarket `json:"odds"`
}

// RawMarket descreve um mercado como o feed entrega: identificação da
// proposição, nome, classificação de tipo/lado e os preços por bookmaker.
// Score vem preenchido apenas quando a proposição já tem resultado numérico.
type RawMarket struct {
	OddID      string              `json:"oddID"`
	MarketName string              `json:"marketName"`
	StatID     string              `json:"statID"`
	BetTypeID  string              `json:"betTypeID"` // "ml" | "sp" | "ou"
	SideID     string              `json:"sideID"`    // "home" | "away" | "over" | "under" | ...
	PlayerID   string              `json:"playerID,omitempty"`
	Score      *float64            `json:"score,omitempty"`
	ByBook     map[string]RawQuote `json:"byBookmaker"`
}

// RawQuote é a cotação de um bookmaker para a linha principal do mercado,
// com as linhas alternativas opcionais que o bookmaker eventualmente oferece.
// Line chega como string, número ou null dependendo do mercado e do feed.
type RawQuote struct {
	Odds      string     `json:"odds"` // preço americano, ex: "-110"
	Line      any        `json:"line,omitempty"`
	Alternate []RawPrice `json:"alternateLines,omitempty"`
}

// RawPrice é uma entrada de linha alternativa: preço + valor da linha.
type RawPrice struct {
	Odds string `json:"odds"`
	Line any    `json:"line"`
}
