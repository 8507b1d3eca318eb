package display

import (
	"math"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
)

// Table prints rows under a header row.
func Table(header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

// KeyValues prints aligned "key: value" pairs in the order given.
func KeyValues(pairs [][2]string) {
	width := 0
	for _, kv := range pairs {
		if len(kv[0]) > width {
			width = len(kv[0])
		}
	}
	for _, kv := range pairs {
		pterm.Printf("  %s%s  %s\n", pterm.Bold.Sprint(kv[0]), strings.Repeat(" ", width-len(kv[0])), kv[1])
	}
}

// Float formats a value compactly, spelling infinities out.
func Float(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// Coords formats a coordinate vector as "(a, b, c)".
func Coords(cs []float64) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = Float(c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Bar renders v in [0, 1] as a fixed-width bar.
func Bar(v float64, width int) string {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(math.Round(v * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
