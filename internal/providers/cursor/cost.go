package cursor

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/janekbaraniewski/cursorusage/internal/parsers"
)

// ParseCost reads an event's usageBasedCosts field, which arrives as a
// formatted string ("$1,234.50"), a bare number or not at all. It never fails:
// anything unreadable counts as zero.
func ParseCost(raw json.RawMessage) (float64, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, parsers.FormatMoney(0)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, parsers.FormatMoney(0)
		}
		v, ok := parsers.ParseMoney(s)
		if !ok {
			return 0, parsers.FormatMoney(0)
		}
		return v, parsers.FormatMoney(v)
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, parsers.FormatMoney(0)
	}
	return v, parsers.FormatMoney(v)
}
