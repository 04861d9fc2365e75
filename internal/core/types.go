// Package core defines the shared market data model.
package core

import (
	"fmt"
	"strings"
	"time"
)

// Resolution is the granularity of a security's data feed.
type Resolution string

const (
	ResolutionTick   Resolution = "tick"
	ResolutionSecond Resolution = "second"
	ResolutionMinute Resolution = "minute"
	ResolutionHour   Resolution = "hour"
	ResolutionDaily  Resolution = "daily"
)

// ParseResolution maps a config string to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(strings.ToLower(s)) {
	case ResolutionTick:
		return ResolutionTick, nil
	case ResolutionSecond:
		return ResolutionSecond, nil
	case ResolutionMinute:
		return ResolutionMinute, nil
	case ResolutionHour:
		return ResolutionHour, nil
	case ResolutionDaily:
		return ResolutionDaily, nil
	}
	return "", fmt.Errorf("unknown resolution %q", s)
}

// Bar represents an aggregated OHLCV candlestick.
type Bar struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Time   time.Time
}

// IsValid checks the bar has a usable price range.
func (b Bar) IsValid() bool {
	return b.Symbol != "" && b.Low > 0 && b.High >= b.Low
}

// Quote represents a top-of-book bid/ask observation.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

// Mid returns the bid/ask midpoint.
func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// SnapshotKind tags which variant of a Snapshot is populated.
type SnapshotKind string

const (
	// SnapshotBar carries an aggregated bar.
	SnapshotBar SnapshotKind = "bar"
	// SnapshotQuote carries a top-of-book quote.
	SnapshotQuote SnapshotKind = "quote"
	// SnapshotValue carries a single last-trade value.
	SnapshotValue SnapshotKind = "value"
)

// Snapshot is the most recent market observation for a security.
// Exactly one variant is populated, selected by Kind.
type Snapshot struct {
	Kind  SnapshotKind
	Bar   *Bar
	Quote *Quote
	Value float64
	Time  time.Time
}

// NewBarSnapshot wraps a bar as a snapshot. The bar's close doubles as
// the snapshot's last value.
func NewBarSnapshot(bar Bar) *Snapshot {
	return &Snapshot{
		Kind:  SnapshotBar,
		Bar:   &bar,
		Value: bar.Close,
		Time:  bar.Time,
	}
}

// NewQuoteSnapshot wraps a quote as a snapshot, using the midpoint as
// the last value.
func NewQuoteSnapshot(quote Quote) *Snapshot {
	return &Snapshot{
		Kind:  SnapshotQuote,
		Quote: &quote,
		Value: quote.Mid(),
		Time:  quote.Time,
	}
}

// NewValueSnapshot wraps a single traded value as a snapshot.
func NewValueSnapshot(value float64, at time.Time) *Snapshot {
	return &Snapshot{
		Kind:  SnapshotValue,
		Value: value,
		Time:  at,
	}
}

// Range returns the minimum and maximum price observed within this
// snapshot's period. Only a bar carries a real range; quotes and plain
// values collapse to a single point.
func (s *Snapshot) Range() (low, high float64) {
	if s.Kind == SnapshotBar && s.Bar != nil {
		return s.Bar.Low, s.Bar.High
	}
	return s.Value, s.Value
}

// Security is a read-only view of the state the fill engine needs:
// the current reference price, the feed resolution, and the latest
// market observation. Last is nil until the first observation arrives.
type Security struct {
	Symbol     string
	Resolution Resolution
	Price      float64
	Last       *Snapshot
}

// HasData reports whether a market observation is available.
func (s Security) HasData() bool {
	return s.Last != nil
}
