package display

import (
	"fmt"
	"io"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/jeffrom/greedyhisto/binning"
)

// Render writes a simple bar chart, one line per bin, scaled so the fullest
// bin is width characters wide.
func Render(w io.Writer, bins []binning.Bin, width int) error {
	if width < 10 {
		width = 10
	}

	max := 0
	labelWidth := 0
	for _, b := range bins {
		if b.Count > max {
			max = b.Count
		}
		if l := len(label(b)); l > labelWidth {
			labelWidth = l
		}
	}

	for _, b := range bins {
		bars := 0
		if max > 0 {
			bars = int(float64(b.Count) / float64(max) * float64(width))
		}
		_, err := fmt.Fprintf(w, "%*s %-*s %s\n",
			labelWidth, label(b),
			width, strings.Repeat("#", bars),
			humanize.Comma(int64(b.Count)))
		if err != nil {
			return err
		}
	}
	return nil
}

func label(b binning.Bin) string {
	if b.Width() == 1 {
		return fmt.Sprintf("%d", b.Lower)
	}
	return fmt.Sprintf("%d..%d", b.Lower, b.PrintedUpper())
}
