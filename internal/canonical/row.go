package canonical

import "time"

// Classification é metadado de observabilidade derivado da forma do oddID
// e de heurísticas sobre o nome do mercado. Nunca participa da chave de
// unicidade nem da liquidação.
type Classification string

const (
	ClassMainLine      Classification = "main_line"
	ClassAlternateLine Classification = "alternate_line"
	ClassPlayerProp    Classification = "player_prop"
	ClassTeamProp      Classification = "team_prop"
	ClassGameProp      Classification = "game_prop"
)

// Row é a unidade canônica escrita pela ingestão.
// A chave lógica é (EventID, OddID, Line); Line nil identifica a linha
// principal do mercado. Prices guarda o preço americano por bookmaker.
type Row struct {
	EventID      string
	OddID        string
	Line         *string
	MarketName   string
	BetTypeID    string
	SideID       string
	Class        Classification
	Prices       map[string]string
	SettledScore *float64
	FetchedAt    time.Time
}

// Key devolve a chave lógica da linha no formato usado em logs e dedupe
func (r Row) Key() string {
	return r.EventID + "|" + r.OddID + "|" + LineKey(r.Line)
}

// LineKey projeta a linha para a forma não-nula usada nos índices únicos:
// string vazia representa a linha principal.
func LineKey(line *string) string {
	if line == nil {
		return ""
	}
	return *line
}

// SameLine compara duas linhas normalizadas, tratando nil como principal
func SameLine(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
