package rollup

import "time"

// WagerStat é a projeção mínima de uma aposta vinculada usada no recálculo
type WagerStat struct {
	Status      string
	StakeCents  int64
	PayoutCents int64
}

// Rollup é o agregado derivado por estratégia. É cache, nunca fonte de
// verdade: sempre recomputável do zero a partir dos vínculos.
type Rollup struct {
	StrategyID       string    `json:"strategyId"`
	TotalBets        int       `json:"totalBets"`
	SettledBets      int       `json:"settledBets"`
	WinningBets      int       `json:"winningBets"`
	LosingBets       int       `json:"losingBets"`
	PushBets         int       `json:"pushBets"`
	WinRate          float64   `json:"winRate"`
	ROIPercentage    float64   `json:"roiPercentage"`
	LastCalculatedAt time.Time `json:"lastCalculatedAt"`
}

// Compute deriva o rollup completo de uma estratégia a partir das apostas
// vinculadas. Função pura e determinística: duas execuções sobre os mesmos
// vínculos produzem o mesmo agregado.
//
// TotalBets conta todos os vínculos, pendentes inclusos; WinRate e ROI
// usam denominadores só de apostas liquidadas. No ROI, aposta empurrada
// (push) não entra nem no numerador nem no denominador; o lucro de uma
// vitória é payout − stake e o de uma derrota é −stake.
func Compute(strategyID string, wagers []WagerStat, now time.Time) Rollup {
	r := Rollup{StrategyID: strategyID, LastCalculatedAt: now}

	var profitCents, riskedCents int64
	for _, w := range wagers {
		r.TotalBets++
		switch w.Status {
		case "won":
			r.WinningBets++
			profitCents += w.PayoutCents - w.StakeCents
			riskedCents += w.StakeCents
		case "lost":
			r.LosingBets++
			profitCents -= w.StakeCents
			riskedCents += w.StakeCents
		case "push":
			r.PushBets++
		default:
			// pendente: conta em TotalBets, fora dos denominadores
			continue
		}
		r.SettledBets++
	}

	if r.SettledBets > 0 {
		r.WinRate = float64(r.WinningBets) / float64(r.SettledBets)
	}
	if riskedCents > 0 {
		r.ROIPercentage = float64(profitCents) / float64(riskedCents) * 100
	}
	return r
}
