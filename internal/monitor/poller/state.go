package poller

import (
	"depthwatch/config"
	"depthwatch/internal/monitor/classifier"
	"depthwatch/internal/monitor/position"
	"depthwatch/internal/monitor/render"

	"github.com/shopspring/decimal"
)

// SymbolState is everything the loop remembers about one symbol between
// ticks. It is owned by the loop goroutine and never shared.
type SymbolState struct {
	Config   config.SymbolConfig
	Tracker  *position.Tracker
	Barriers classifier.BarrierMemory

	Trend *render.Trend
}

func newSymbolState(cfg config.SymbolConfig, fee decimal.Decimal) *SymbolState {
	return &SymbolState{
		Config:  cfg,
		Tracker: position.NewTracker(cfg.Name, fee),
	}
}

func (s *SymbolState) classifierParams() classifier.Params {
	return classifier.Params{
		Height:          s.Config.Height,
		BarrierFraction: s.Config.BarrierFraction,
		RoundUnit:       s.Config.RoundUnit,
		RoundTolerance:  s.Config.RoundTolerance,
	}
}

func (s *SymbolState) renderParams() render.Params {
	return render.Params{
		Height:   s.Config.Height,
		BarWidth: s.Config.BarWidth,
		XRange:   s.Config.XRange,
		AutoY:    s.Config.YScale == config.YScaleAuto,
	}
}
