package settlement

import (
	"testing"

	"github.com/radieske/odds-settlement-core/internal/canonical"
)

func strPtr(s string) *string { return &s }

func row(oddID, marketName string, line *string) canonical.Row {
	return canonical.Row{
		EventID:    "evt-1",
		OddID:      oddID,
		Line:       line,
		MarketName: marketName,
	}
}

func TestMatchRowExactKey(t *testing.T) {
	rows := []canonical.Row{
		row("points-all-game-ou-over", "Total Points", nil),
		row("points-all-game-ou-over", "Total Points", strPtr("224.5")),
	}
	w := Wager{OddID: "points-all-game-ou-over", Line: strPtr("224.5")}

	got, ok := MatchRow(w, rows)
	if !ok {
		t.Fatal("tier 1 deveria resolver")
	}
	if got.Line == nil || *got.Line != "224.5" {
		t.Errorf("casou a linha errada: %v", got.Line)
	}
}

func TestMatchRowPatternDrift(t *testing.T) {
	// cenário de deriva de identificador entre feeds: o id da aposta é
	// substring do id da linha
	rows := []canonical.Row{
		row("mlb-total-home-runs-over-8.5-alt", "Total Home Runs", strPtr("8.5")),
		row("points-home-game-ml-home", "Moneyline", nil),
	}
	w := Wager{OddID: "total-home-runs-over-8.5", Line: strPtr("8.5")}

	got, ok := MatchRow(w, rows)
	if !ok {
		t.Fatal("tier 2 deveria resolver por substring case-folded")
	}
	if got.OddID != "mlb-total-home-runs-over-8.5-alt" {
		t.Errorf("casou %q", got.OddID)
	}
}

func TestMatchRowPatternCaseFold(t *testing.T) {
	rows := []canonical.Row{
		row("MLB-Total-Home-Runs-Over-8.5", "Total Home Runs", nil),
	}
	w := Wager{OddID: "total-home-runs-over-8.5"}

	if _, ok := MatchRow(w, rows); !ok {
		t.Error("comparação deve ser case-insensitive")
	}
}

func TestMatchRowTier2AmbiguityBlocksTier3(t *testing.T) {
	// dois candidatos de tier 2 com a mesma linha: ambíguo, e o tier 3
	// não pode disparar
	rows := []canonical.Row{
		row("total-runs-over-8.5-v1", "Total Runs", strPtr("8.5")),
		row("total-runs-over-8.5-v2", "Total Runs", strPtr("8.5")),
	}
	w := Wager{OddID: "total-runs-over-8.5", Line: strPtr("8.5"), BetType: "total"}

	if _, ok := MatchRow(w, rows); ok {
		t.Error("ambiguidade deve deixar a aposta sem resolução")
	}
}

func TestMatchRowMarketTypeHeuristic(t *testing.T) {
	rows := []canonical.Row{
		row("x-home-game-ml-home", "Moneyline", nil),
		row("y-all-game-ou-over", "Total Points Over/Under", nil),
	}
	w := Wager{OddID: "something-entirely-different", BetType: "total"}

	got, ok := MatchRow(w, rows)
	if !ok {
		t.Fatal("tier 3 deveria resolver: uma única linha de total")
	}
	if got.OddID != "y-all-game-ou-over" {
		t.Errorf("casou %q", got.OddID)
	}
}

func TestMatchRowMarketTypeAmbiguous(t *testing.T) {
	rows := []canonical.Row{
		row("y-all-game-ou-over", "Total Points Over/Under", nil),
		row("y-all-game-ou-under", "Total Points Over/Under", nil),
	}
	w := Wager{OddID: "no-such-id", BetType: "total"}

	if _, ok := MatchRow(w, rows); ok {
		t.Error("múltiplas linhas qualificadas no tier 3 devem deixar sem resolução")
	}
}

func TestMatchRowNoCandidates(t *testing.T) {
	rows := []canonical.Row{
		row("points-home-game-ml-home", "Moneyline", nil),
	}
	w := Wager{OddID: "rebounds-away-game-ou-over", BetType: "team_prop"}

	if _, ok := MatchRow(w, rows); ok {
		t.Error("sem candidato em nenhum tier: sem resolução")
	}
}

func TestNormalizeBetType(t *testing.T) {
	tests := []struct{ in, want string }{
		{"moneyline", "moneyline"},
		{"Money Line", "moneyline"},
		{"ml", "moneyline"},
		{"h2h", "moneyline"},
		{"spread", "spread"},
		{"sp", "spread"},
		{"Handicap", "spread"},
		{"total", "total"},
		{"ou", "total"},
		{"Over/Under", "total"},
	}
	for _, tt := range tests {
		if got := normalizeBetType(tt.in); got != tt.want {
			t.Errorf("normalizeBetType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
