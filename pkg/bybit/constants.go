package bybit

import (
	"fmt"
	"time"
)

// KlineInterval is the interval type used for API requests
type KlineInterval string

// KlineIntervalMeta holds the API value and the common short name of a Kline interval
type KlineIntervalMeta struct {
	APIValue  string
	ShortName string
	Minutes   int
}

const (
	Interval1Min    KlineInterval = "1"
	Interval3Min    KlineInterval = "3"
	Interval5Min    KlineInterval = "5"
	Interval15Min   KlineInterval = "15"
	Interval30Min   KlineInterval = "30"
	Interval60Min   KlineInterval = "60"
	Interval120Min  KlineInterval = "120"
	Interval240Min  KlineInterval = "240"
	Interval360Min  KlineInterval = "360"
	Interval720Min  KlineInterval = "720"
	IntervalDaily   KlineInterval = "D"
	IntervalWeekly  KlineInterval = "W"
	IntervalMonthly KlineInterval = "M"
)

// validKlineIntervals maps KlineInterval to its API value and short name
var validKlineIntervals = map[KlineInterval]KlineIntervalMeta{
	Interval1Min:    {APIValue: "1", ShortName: "1m", Minutes: 1},
	Interval3Min:    {APIValue: "3", ShortName: "3m", Minutes: 3},
	Interval5Min:    {APIValue: "5", ShortName: "5m", Minutes: 5},
	Interval15Min:   {APIValue: "15", ShortName: "15m", Minutes: 15},
	Interval30Min:   {APIValue: "30", ShortName: "30m", Minutes: 30},
	Interval60Min:   {APIValue: "60", ShortName: "1h", Minutes: 60},
	Interval120Min:  {APIValue: "120", ShortName: "2h", Minutes: 120},
	Interval240Min:  {APIValue: "240", ShortName: "4h", Minutes: 240},
	Interval360Min:  {APIValue: "360", ShortName: "6h", Minutes: 360},
	Interval720Min:  {APIValue: "720", ShortName: "12h", Minutes: 720},
	IntervalDaily:   {APIValue: "D", ShortName: "1d", Minutes: 1440},  // 24*60
	IntervalWeekly:  {APIValue: "W", ShortName: "1w", Minutes: 10080}, // 7*24*60
	IntervalMonthly: {APIValue: "M", ShortName: "1M", Minutes: 43200}, // 30*24*60
}

// IsValid checks if the KlineInterval is a valid predefined interval
func (k KlineInterval) IsValid() bool {
	_, ok := validKlineIntervals[k]
	return ok
}

// ParseKlineInterval accepts either the API value ("15") or the short name ("15m").
func ParseKlineInterval(s string) (KlineIntervalMeta, error) {
	if meta, ok := validKlineIntervals[KlineInterval(s)]; ok {
		return meta, nil
	}
	for _, meta := range validKlineIntervals {
		if meta.ShortName == s {
			return meta, nil
		}
	}
	return KlineIntervalMeta{}, fmt.Errorf("invalid KlineInterval: %s", s)
}

// Duration returns the nominal bar length.
func (m KlineIntervalMeta) Duration() time.Duration {
	return time.Duration(m.Minutes) * time.Minute
}
