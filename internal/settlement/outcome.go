package settlement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/radieske/odds-settlement-core/internal/canonical"
)

var (
	ErrNoSettledScore = errors.New("row has no settled score")
	ErrNoLine         = errors.New("no numeric line for spread/total wager")
)

// DeriveOutcome calcula o resultado da aposta a partir do settled_score da
// linha casada, pelas convenções de sinal usuais.
//
// Semântica do score: para totais é o valor final combinado da estatística;
// para spread e moneyline é a margem do mandante (home - away). Empate em
// linha inteira, sem meio ponto, produz push; todo o resto é won/lost.
func DeriveOutcome(w Wager, row canonical.Row) (string, error) {
	if row.SettledScore == nil {
		return "", ErrNoSettledScore
	}
	score := *row.SettledScore
	side := rowSide(row)

	switch normalizeBetType(betTypeOf(w, row)) {
	case "moneyline":
		margin := score
		if side == "away" {
			margin = -margin
		}
		switch {
		case margin > 0:
			return StatusWon, nil
		case margin < 0:
			return StatusLost, nil
		default:
			return StatusPush, nil
		}

	case "spread":
		line, ok := wagerLine(w, row)
		if !ok {
			return "", ErrNoLine
		}
		margin := score
		if side == "away" {
			margin = -margin
		}
		adjusted := margin + line
		switch {
		case adjusted > 0:
			return StatusWon, nil
		case adjusted < 0:
			return StatusLost, nil
		default:
			return StatusPush, nil
		}

	case "total":
		line, ok := wagerLine(w, row)
		if !ok {
			return "", ErrNoLine
		}
		if score == line {
			return StatusPush, nil
		}
		over := score > line
		if side == "under" {
			if over {
				return StatusLost, nil
			}
			return StatusWon, nil
		}
		if over {
			return StatusWon, nil
		}
		return StatusLost, nil
	}

	return "", fmt.Errorf("unsupported bet type %q", w.BetType)
}

// betTypeOf prefere a classificação declarada da aposta; na falta dela,
// o betTypeID da linha ("ml" | "sp" | "ou").
func betTypeOf(w Wager, row canonical.Row) string {
	if strings.TrimSpace(w.BetType) != "" {
		return w.BetType
	}
	return row.BetTypeID
}

// wagerLine prefere a linha da aposta; na falta, a linha da própria linha
// de odds (caso de aposta na linha principal com threshold implícito).
func wagerLine(w Wager, row canonical.Row) (float64, bool) {
	if f, ok := canonical.ParseLine(w.Line); ok {
		return f, true
	}
	return canonical.ParseLine(row.Line)
}

// rowSide lê o lado da linha; cai para o último token do oddID quando o
// feed não preenche sideID.
func rowSide(row canonical.Row) string {
	if row.SideID != "" {
		return strings.ToLower(row.SideID)
	}
	parts := strings.Split(row.OddID, "-")
	return strings.ToLower(parts[len(parts)-1])
}
