package settlement

import (
	"strings"

	"github.com/radieske/odds-settlement-core/internal/canonical"
)

// Famílias de palavras-chave do tier 3, por classificação declarada da
// aposta. Melhor esforço: só resolve quando UMA linha qualifica.
var marketKeywords = map[string][]string{
	"moneyline": {"moneyline", "money line", "winner"},
	"total":     {"total", "over/under", "over"},
	"spread":    {"spread", "handicap", "run line", "puck line"},
}

// MatchRow resolve a aposta para exatamente uma linha de odds, em três
// níveis aplicados em ordem. O primeiro que resolve ganha:
//
//  1. chave exata: (oddID, line) iguais;
//  2. padrão normalizado: oddID da aposta, case-folded, contido em (ou
//     contendo) o oddID de uma linha; cobre deriva de identificador
//     entre o feed de preços e o de liquidação;
//  3. heurística de mercado: o tipo declarado da aposta casa com o nome
//     do mercado de UMA única linha.
//
// Ambiguidade em qualquer nível deixa a aposta sem resolução: nunca se
// escolhe linha arbitrariamente.
func MatchRow(w Wager, rows []canonical.Row) (canonical.Row, bool) {
	// Tier 1: chave exata
	for _, r := range rows {
		if r.OddID == w.OddID && canonical.SameLine(r.Line, w.Line) {
			return r, true
		}
	}

	// Tier 2: substring case-folded em qualquer direção
	wid := strings.ToLower(w.OddID)
	var candidates []canonical.Row
	for _, r := range rows {
		rid := strings.ToLower(r.OddID)
		if strings.Contains(rid, wid) || strings.Contains(wid, rid) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) > 0 {
		// entre os candidatos, a linha igual desempata
		var sameLine []canonical.Row
		for _, r := range candidates {
			if canonical.SameLine(r.Line, w.Line) {
				sameLine = append(sameLine, r)
			}
		}
		if len(sameLine) == 1 {
			return sameLine[0], true
		}
		if len(sameLine) == 0 && len(candidates) == 1 {
			return candidates[0], true
		}
		// houve candidato no tier 2 mas nenhum único: sem resolução,
		// o tier 3 não dispara
		return canonical.Row{}, false
	}

	// Tier 3: família de palavras-chave do tipo de aposta
	keywords, ok := marketKeywords[normalizeBetType(w.BetType)]
	if !ok {
		return canonical.Row{}, false
	}
	var matched []canonical.Row
	for _, r := range rows {
		name := strings.ToLower(r.MarketName)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				matched = append(matched, r)
				break
			}
		}
	}
	if len(matched) == 1 {
		return matched[0], true
	}
	return canonical.Row{}, false
}

// normalizeBetType reduz a classificação declarada às famílias conhecidas
func normalizeBetType(bt string) string {
	s := strings.ToLower(strings.TrimSpace(bt))
	switch {
	case strings.Contains(s, "money"), s == "ml", s == "h2h":
		return "moneyline"
	case strings.Contains(s, "spread"), strings.Contains(s, "handicap"), s == "sp":
		return "spread"
	case strings.Contains(s, "total"), strings.Contains(s, "over"), strings.Contains(s, "under"), s == "ou":
		return "total"
	}
	return s
}
