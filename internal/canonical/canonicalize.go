package canonical

import (
	"sort"
	"time"
)

// Dropped registra uma proposição descartada por defeito de forma no
// payload (campo obrigatório ausente). O lote continua sem ela.
type Dropped struct {
	OddID  string
	Reason string
}

// Canonicalize transforma o payload bruto de um evento na lista ordenada de
// linhas canônicas. Função pura: mesma entrada, mesma saída, byte a byte.
//
// Para cada proposição sai uma linha principal com Line nil agregando os
// preços de todos os bookmakers; cada valor distinto de linha alternativa
// vira uma linha adicional, e bookmakers que cotam o mesmo valor são
// mesclados na mesma linha (dedupe em mapa por (oddID, linha normalizada),
// construído neste único passe).
func Canonicalize(p RawPayload, fetchedAt time.Time) ([]Row, []Dropped) {
	var dropped []Dropped

	// chave de dedupe -> linha acumulada
	rows := make(map[string]*Row)

	oddIDs := make([]string, 0, len(p.Odds))
	for id := range p.Odds {
		oddIDs = append(oddIDs, id)
	}
	sort.Strings(oddIDs)

	for _, propKey := range oddIDs {
		m := p.Odds[propKey]
		oddID := m.OddID
		if oddID == "" {
			oddID = propKey
		}
		if oddID == "" {
			dropped = append(dropped, Dropped{OddID: propKey, Reason: "missing oddID"})
			continue
		}
		if len(m.ByBook) == 0 {
			dropped = append(dropped, Dropped{OddID: oddID, Reason: "no bookmaker prices"})
			continue
		}

		books := make([]string, 0, len(m.ByBook))
		for b := range m.ByBook {
			books = append(books, b)
		}
		sort.Strings(books)

		// Linha principal: Line nil, preços de todos os bookmakers
		main := upsertRow(rows, p.EventID, oddID, nil, m, fetchedAt)
		for _, book := range books {
			q := m.ByBook[book]
			if q.Odds != "" {
				main.Prices[book] = q.Odds
			}
		}
		if len(main.Prices) == 0 {
			delete(rows, main.Key())
			dropped = append(dropped, Dropped{OddID: oddID, Reason: "no priced quotes"})
			continue
		}

		// Linhas alternativas: uma linha por valor normalizado distinto,
		// acumulando os preços de bookmakers que cotam o mesmo valor
		for _, book := range books {
			for _, alt := range m.ByBook[book].Alternate {
				line := NormalizeLine(alt.Line)
				if line == nil || alt.Odds == "" {
					continue // alternativa sem linha ou sem preço não gera linha própria
				}
				row := upsertRow(rows, p.EventID, oddID, line, m, fetchedAt)
				row.Prices[book] = alt.Odds
			}
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sortRows(out)
	return out, dropped
}

func upsertRow(rows map[string]*Row, eventID, oddID string, line *string, m RawMarket, fetchedAt time.Time) *Row {
	key := Row{EventID: eventID, OddID: oddID, Line: line}.Key()
	if r, ok := rows[key]; ok {
		return r
	}
	r := &Row{
		EventID:      eventID,
		OddID:        oddID,
		Line:         line,
		MarketName:   m.MarketName,
		BetTypeID:    m.BetTypeID,
		SideID:       m.SideID,
		Class:        Classify(oddID, m.MarketName, line),
		Prices:       make(map[string]string),
		SettledScore: m.Score,
		FetchedAt:    fetchedAt,
	}
	rows[key] = r
	return r
}

// sortRows ordena por oddID, linha principal primeiro, depois linhas
// alternativas em ordem numérica crescente (lexicográfica no fallback).
func sortRows(rs []Row) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.OddID != b.OddID {
			return a.OddID < b.OddID
		}
		if (a.Line == nil) != (b.Line == nil) {
			return a.Line == nil
		}
		if a.Line == nil {
			return false
		}
		fa, oka := ParseLine(a.Line)
		fb, okb := ParseLine(b.Line)
		if oka && okb {
			return fa < fb
		}
		return *a.Line < *b.Line
	})
}
