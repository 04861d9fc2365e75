// Package stats aggregates a closed-trade ledger and an equity curve
// into standardized performance statistics.
package stats

import (
	"sort"
	"time"
)

// Point is one timestamped observation in a series.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is a time-ordered sequence of observations: equity values,
// per-trade profit/loss, or fractional daily returns. Points stay
// sorted by timestamp regardless of insertion order.
type Series struct {
	points []Point
}

// NewSeries creates a series from the given points, sorting them by time.
func NewSeries(points ...Point) *Series {
	s := &Series{points: append([]Point(nil), points...)}
	sort.SliceStable(s.points, func(i, j int) bool {
		return s.points[i].Time.Before(s.points[j].Time)
	})
	return s
}

// Add inserts an observation, keeping the series time-ordered. Appends
// are O(1) for the common chronological case.
func (s *Series) Add(at time.Time, value float64) {
	p := Point{Time: at, Value: value}
	n := len(s.points)
	if n == 0 || !at.Before(s.points[n-1].Time) {
		s.points = append(s.points, p)
		return
	}
	i := sort.Search(n, func(i int) bool { return s.points[i].Time.After(at) })
	s.points = append(s.points, Point{})
	copy(s.points[i+1:], s.points[i:])
	s.points[i] = p
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// Points returns the observations in time order. The returned slice is
// the series' backing store; callers must not modify it.
func (s *Series) Points() []Point {
	if s == nil {
		return nil
	}
	return s.points
}

// Values returns just the observation values in time order.
func (s *Series) Values() []float64 {
	if s == nil {
		return nil
	}
	values := make([]float64, len(s.points))
	for i, p := range s.points {
		values[i] = p.Value
	}
	return values
}

// First returns the earliest observation, or false when empty.
func (s *Series) First() (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// Last returns the latest observation, or false when empty.
func (s *Series) Last() (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}
