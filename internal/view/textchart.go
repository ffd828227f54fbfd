package view

import (
	"fmt"
	"strings"

	"twflow/internal/projection"
)

// TextChart renders a chart dataset as a fixed-width horizontal bar chart.
// It satisfies Renderer; each Render yields a new TextHandle.
type TextChart struct {
	BarWidth int // widest bar in cells, defaults to 40
}

// TextHandle is a rendered text chart. View returns its content until the
// handle is destroyed, after which it returns the empty string.
type TextHandle struct {
	content   string
	destroyed bool
}

// View returns the rendered chart.
func (h *TextHandle) View() string {
	if h.destroyed {
		return ""
	}
	return h.content
}

// Destroy releases the handle.
func (h *TextHandle) Destroy() { h.destroyed = true }

// Destroyed reports whether the handle has been released.
func (h *TextHandle) Destroyed() bool { return h.destroyed }

// Render draws one line per label and series, bars scaled against the
// largest absolute value in the dataset.
func (t *TextChart) Render(ds *projection.ChartDataset) (Handle, error) {
	width := t.BarWidth
	if width <= 0 {
		width = 40
	}

	var maxAbs int64 = 1
	for _, s := range ds.Series {
		for _, v := range s.Values {
			if a := abs64(v); a > maxAbs {
				maxAbs = a
			}
		}
	}

	labelWidth := 0
	for _, l := range ds.Labels {
		if len(l) > labelWidth {
			labelWidth = len(l)
		}
	}

	var b strings.Builder
	for i, label := range ds.Labels {
		for si, s := range ds.Series {
			v := int64(0)
			if i < len(s.Values) {
				v = s.Values[i]
			}
			n := int(abs64(v) * int64(width) / maxAbs)
			mark := "█"
			if v < 0 {
				mark = "▒"
			}
			name := label
			if si > 0 {
				name = "" // label only the first series row
			}
			fmt.Fprintf(&b, "%-*s %-10s %s %s\n",
				labelWidth, name, s.Label, strings.Repeat(mark, n), projection.FormatLots(v))
		}
	}

	return &TextHandle{content: b.String()}, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
