package canonical

import "strings"

// mainStats são os statIDs cujo mercado de jogo inteiro é tratado como
// linha principal (moneyline/spread/total do jogo, não prop).
var mainStats = map[string]bool{
	"points": true,
	"goals":  true,
	"runs":   true,
}

// Classify deriva a classificação da proposição a partir da forma do oddID
// (statID-entityID-periodID-betTypeID-sideID) e de heurísticas de palavras-
// chave no nome do mercado. Melhor esforço: erro de classificação é ruído
// de relatório, nunca afeta unicidade nem liquidação.
func Classify(oddID, marketName string, line *string) Classification {
	if line != nil {
		return ClassAlternateLine
	}

	entity := entityToken(oddID)
	stat := statToken(oddID)
	period := periodToken(oddID)

	// Entidade com forma de identificador de jogador (ex: "LEBRON_JAMES_1_NBA")
	if isPlayerEntity(entity) {
		return ClassPlayerProp
	}

	name := strings.ToLower(marketName)
	if strings.Contains(name, "player") {
		return ClassPlayerProp
	}

	switch entity {
	case "home", "away":
		if mainStats[stat] && (period == "game" || period == "") {
			return ClassMainLine
		}
		return ClassTeamProp
	case "all":
		if mainStats[stat] && (period == "game" || period == "") {
			return ClassMainLine
		}
		return ClassGameProp
	}

	return ClassGameProp
}

func splitOddID(oddID string) []string { return strings.Split(oddID, "-") }

func statToken(oddID string) string {
	parts := splitOddID(oddID)
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func entityToken(oddID string) string {
	parts := splitOddID(oddID)
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}

func periodToken(oddID string) string {
	parts := splitOddID(oddID)
	if len(parts) > 2 {
		return parts[2]
	}
	return ""
}

// isPlayerEntity reconhece tokens de jogador: identificadores longos em
// caixa alta com underscore, distintos dos marcadores home|away|all.
func isPlayerEntity(entity string) bool {
	if entity == "" || entity == "home" || entity == "away" || entity == "all" {
		return false
	}
	if strings.Contains(entity, "_") {
		return true
	}
	return entity == strings.ToUpper(entity) && entity != strings.ToLower(entity)
}
