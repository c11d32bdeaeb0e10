package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	ansiClear  = "\033[H\033[2J"
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// Terminal draws the top of each book as horizontal ANSI bars.
type Terminal struct {
	w     io.Writer
	rows  int
	width int
}

func NewTerminal(w io.Writer, rows, width int) *Terminal {
	if rows <= 0 {
		rows = 10
	}
	if width <= 0 {
		width = 50
	}
	return &Terminal{w: w, rows: rows, width: width}
}

func (t *Terminal) Clear() error {
	_, err := io.WriteString(t.w, ansiClear)
	return err
}

func (t *Terminal) Draw(frames []Frame) error {
	bw := bufio.NewWriter(t.w)
	for _, f := range frames {
		t.drawFrame(bw, f)
	}
	return bw.Flush()
}

func (t *Terminal) drawFrame(w io.Writer, f Frame) {
	fmt.Fprintf(w, "%s== %s ==%s  y max %s\n", ansiBold, f.Symbol, ansiReset, formatNotional(f.YMax))

	// Asks highest first so the spread sits in the middle.
	asks := f.Asks
	if len(asks) > t.rows {
		asks = asks[:t.rows]
	}
	for i := len(asks) - 1; i >= 0; i-- {
		t.drawBar(w, asks[i], ansiGreen, f.YMax)
	}

	fmt.Fprintf(w, "%s\n", strings.Repeat("-", t.width+28))

	bids := f.Bids
	if len(bids) > t.rows {
		bids = bids[:t.rows]
	}
	for _, b := range bids {
		t.drawBar(w, b, ansiRed, f.YMax)
	}

	if f.Trend != nil && len(f.Trend.Prices) > 0 {
		last := f.Trend.Prices[len(f.Trend.Prices)-1]
		line := fmt.Sprintf("trend: high %s", formatPrice(last.Price))
		if n := len(f.Trend.SMA); n > 0 {
			line += fmt.Sprintf(" sma %s", formatPrice(f.Trend.SMA[n-1].Price))
		}
		line += fmt.Sprintf(" buys %d sells %d", len(f.Trend.Buys), len(f.Trend.Sells))
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

func (t *Terminal) drawBar(w io.Writer, b Bar, color string, yMax float64) {
	n := 0
	if yMax > 0 {
		n = int(math.Round(b.Notional / yMax * float64(t.width)))
	}
	n = min(max(n, 0), t.width)

	if b.Private {
		color = ansiYellow
	}
	if b.Barrier {
		color = ansiBold + color
	}

	fmt.Fprintf(w, "%14s %s%-*s%s %s\n",
		formatPrice(b.Price),
		color, t.width, strings.Repeat("#", n), ansiReset,
		formatNotional(b.Notional))
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func formatNotional(n float64) string {
	return strconv.FormatFloat(n, 'f', 2, 64)
}
