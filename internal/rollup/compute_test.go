package rollup

import (
	"math"
	"testing"
	"time"
)

var computeNow = time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeComStrategyMista(t *testing.T) {
	// 10 vínculos: 6 ganhas, 3 perdidas, 1 pendente.
	// stake 1000, payout 1900 em cada vitória.
	var wagers []WagerStat
	for i := 0; i < 6; i++ {
		wagers = append(wagers, WagerStat{Status: "won", StakeCents: 1000, PayoutCents: 1900})
	}
	for i := 0; i < 3; i++ {
		wagers = append(wagers, WagerStat{Status: "lost", StakeCents: 1000})
	}
	wagers = append(wagers, WagerStat{Status: "pending", StakeCents: 1000})

	r := Compute("strat-1", wagers, computeNow)

	if r.TotalBets != 10 {
		t.Fatalf("TotalBets esperado 10, veio %d", r.TotalBets)
	}
	if r.SettledBets != 9 {
		t.Fatalf("SettledBets esperado 9, veio %d", r.SettledBets)
	}
	if r.WinningBets != 6 || r.LosingBets != 3 || r.PushBets != 0 {
		t.Fatalf("contagens erradas: won=%d lost=%d push=%d", r.WinningBets, r.LosingBets, r.PushBets)
	}
	if !almostEqual(r.WinRate, 6.0/9.0) {
		t.Fatalf("WinRate esperado 6/9, veio %f", r.WinRate)
	}
	// lucro = 6*(1900-1000) - 3*1000 = 2400; arriscado = 9*1000
	if !almostEqual(r.ROIPercentage, 2400.0/9000.0*100) {
		t.Fatalf("ROI esperado %f, veio %f", 2400.0/9000.0*100, r.ROIPercentage)
	}
	if !r.LastCalculatedAt.Equal(computeNow) {
		t.Fatalf("LastCalculatedAt não preservado: %v", r.LastCalculatedAt)
	}
}

func TestComputePushForaDosDenominadores(t *testing.T) {
	wagers := []WagerStat{
		{Status: "won", StakeCents: 1000, PayoutCents: 2000},
		{Status: "lost", StakeCents: 1000},
		{Status: "push", StakeCents: 1000, PayoutCents: 1000},
	}
	r := Compute("strat-push", wagers, computeNow)

	if r.SettledBets != 3 {
		t.Fatalf("push liquida; SettledBets esperado 3, veio %d", r.SettledBets)
	}
	if !almostEqual(r.WinRate, 1.0/3.0) {
		t.Fatalf("WinRate inclui push no denominador de liquidadas: esperado 1/3, veio %f", r.WinRate)
	}
	// push fora do ROI: lucro = 1000 - 1000 = 0 sobre 2000 arriscados
	if !almostEqual(r.ROIPercentage, 0) {
		t.Fatalf("ROI com push deveria ignorar a stake empurrada: veio %f", r.ROIPercentage)
	}
}

func TestComputeSemVinculos(t *testing.T) {
	r := Compute("strat-vazia", nil, computeNow)
	if r.TotalBets != 0 || r.WinRate != 0 || r.ROIPercentage != 0 {
		t.Fatalf("estratégia sem vínculos deve zerar tudo: %+v", r)
	}
}

func TestComputeSoPendentes(t *testing.T) {
	wagers := []WagerStat{
		{Status: "pending", StakeCents: 500},
		{Status: "pending", StakeCents: 500},
	}
	r := Compute("strat-pend", wagers, computeNow)
	if r.TotalBets != 2 {
		t.Fatalf("TotalBets esperado 2, veio %d", r.TotalBets)
	}
	if r.SettledBets != 0 || r.WinRate != 0 || r.ROIPercentage != 0 {
		t.Fatalf("sem liquidadas não pode haver divisão: %+v", r)
	}
}

func TestComputeDeterministico(t *testing.T) {
	wagers := []WagerStat{
		{Status: "won", StakeCents: 1000, PayoutCents: 1850},
		{Status: "lost", StakeCents: 2000},
		{Status: "pending", StakeCents: 300},
	}
	a := Compute("strat-det", wagers, computeNow)
	b := Compute("strat-det", wagers, computeNow)
	if a != b {
		t.Fatalf("duas execuções divergem:\n%+v\n%+v", a, b)
	}
}
