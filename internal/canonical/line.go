package canonical

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizeLine reduz qualquer representação de linha vinda do feed a uma
// forma canônica única: nil para a linha principal, ou uma string estável
// para valores numéricos e textuais. "7.5", 7.5 e json.Number("7.50")
// produzem a mesma chave; null, "", "null" e "undefined" viram nil.
func NormalizeLine(v any) *string {
	if v == nil {
		return nil
	}

	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(t), 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		s = strings.TrimSpace(fmt.Sprintf("%v", t))
	}

	switch strings.ToLower(s) {
	case "", "null", "undefined":
		return nil
	}

	// Forma numérica canônica: remove zeros à direita ("7.50" == "7.5")
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return &s
}

// ParseLine converte uma linha normalizada em float64.
// ok=false quando a linha é principal (nil) ou não numérica.
func ParseLine(line *string) (float64, bool) {
	if line == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(*line, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
