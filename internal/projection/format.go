package projection

import (
	"fmt"
	"strings"
	"time"
)

// FormatLots formats a signed lot count with comma separators.
func FormatLots(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

// generatedLayout is the producer's timestamp format (UTC).
const generatedLayout = "2006-01-02 15:04:05"

// FormatGeneratedAt converts the producer's UTC timestamp to the fixed +8
// display offset. The conversion is pure arithmetic on the string so output
// never depends on the host clock or zone database. Unparseable input is
// returned unchanged.
func FormatGeneratedAt(s string) string {
	t, err := time.Parse(generatedLayout, s)
	if err != nil {
		return s
	}
	return t.Add(8*time.Hour).Format(generatedLayout) + " (UTC+8)"
}
