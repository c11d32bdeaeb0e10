// Package render builds per-tick chart frames and draws them.
package render

import (
	"math"
	"time"

	"depthwatch/internal/monitor/classifier"
)

const (
	ColorBid     = "red"
	ColorAsk     = "green"
	ColorPrivate = "yellow"
	ColorDepth   = "black"
)

// Bar is one price level drawn as a vertical bar of height Notional.
type Bar struct {
	Price    float64 `json:"price"`
	Notional float64 `json:"notional"`
	Private  bool    `json:"private"`
	Barrier  bool    `json:"barrier"`
}

// Marker is a vertical line at a price.
type Marker struct {
	Price  float64 `json:"price"`
	Color  string  `json:"color"`
	Dashed bool    `json:"dashed"`
	Label  string  `json:"label"`
}

// Frame is everything needed to draw one symbol for one tick.
type Frame struct {
	Symbol   string    `json:"symbol"`
	Tick     int       `json:"tick"`
	Time     time.Time `json:"time"`
	Bids     []Bar     `json:"bids"`
	Asks     []Bar     `json:"asks"`
	BarWidth float64   `json:"barWidth"`
	YMax     float64   `json:"yMax"`
	XMin     float64   `json:"xMin,omitempty"` // zero when the whole book is shown
	XMax     float64   `json:"xMax,omitempty"`
	Markers  []Marker  `json:"markers"`
	Trend    *Trend    `json:"trend,omitempty"`
	PnL      string    `json:"pnl,omitempty"`
}

// Params are the per-symbol drawing options.
type Params struct {
	Height   float64 // fixed scale floor
	BarWidth float64
	XRange   float64 // half window around the mid price, 0 = whole book
	AutoY    bool    // scale to the data only, ignoring Height
}

// BuildFrame converts a classified book into a frame. It has no side effects.
func BuildFrame(a *classifier.Analysis, p Params) Frame {
	f := Frame{
		Symbol:   a.Symbol,
		Bids:     toBars(a.Bids),
		Asks:     toBars(a.Asks),
		BarWidth: p.BarWidth,
	}
	if a.Snapshot != nil {
		f.Time = a.Snapshot.FetchedAt
	}

	f.YMax = a.MaxNotional()
	if !p.AutoY {
		f.YMax = math.Max(f.YMax, p.Height)
	}

	bestBid, bestAsk := a.BestBid(), a.BestAsk()
	if p.XRange > 0 {
		center := (bestBid.Price + bestAsk.Price) / 2
		f.XMin, f.XMax = center-p.XRange, center+p.XRange
	}

	f.Markers = append(f.Markers, Marker{Price: bestAsk.Price, Color: ColorAsk, Dashed: true, Label: "best ask"})
	if deepest, ok := a.Snapshot.DeepestAsk(); ok {
		f.Markers = append(f.Markers, Marker{Price: deepest.Price, Color: ColorDepth, Dashed: true, Label: "deepest ask"})
	}
	f.Markers = append(f.Markers, Marker{Price: bestBid.Price, Color: ColorBid, Dashed: true, Label: "best bid"})
	if deepest, ok := a.Snapshot.DeepestBid(); ok {
		f.Markers = append(f.Markers, Marker{Price: deepest.Price, Color: ColorDepth, Dashed: true, Label: "deepest bid"})
	}

	return f
}

func toBars(levels []classifier.ClassifiedLevel) []Bar {
	bars := make([]Bar, len(levels))
	for i, l := range levels {
		bars[i] = Bar{Price: l.Price, Notional: l.Notional, Private: l.Private, Barrier: l.Barrier}
	}
	return bars
}

// Renderer draws frames. Each tick the previous drawing is cleared first.
type Renderer interface {
	Clear() error
	Draw(frames []Frame) error
}

// Multi draws to several renderers, stopping at the first error.
type Multi []Renderer

func (m Multi) Clear() error {
	for _, r := range m {
		if err := r.Clear(); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Draw(frames []Frame) error {
	for _, r := range m {
		if err := r.Draw(frames); err != nil {
			return err
		}
	}
	return nil
}
