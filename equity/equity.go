// Package equity keeps the account's equity curve: one timestamped point
// per monitor tick and per state-changing ledger mutation.
package equity

import (
	"sync"
	"time"
)

// Point is one equity observation.
type Point struct {
	Time        time.Time
	Cash        float64
	MarketValue float64
	TotalEquity float64
}

// Recorder persists points as they are appended.
type Recorder interface {
	RecordEquity(Point) error
}

// Sampler stores the in-memory equity series and serves range queries.
// The series is decimated once it exceeds maxPoints, always preserving the
// first and last point so the curve's endpoints are stable across queries.
type Sampler struct {
	mu        sync.Mutex
	points    []Point
	recentN   int
	maxPoints int
	recorder  Recorder
}

// NewSampler builds a sampler. recentN bounds the trailing window served by
// Recent; maxPoints caps the stored series before decimation kicks in.
func NewSampler(recentN, maxPoints int) *Sampler {
	if recentN < 1 {
		recentN = 1
	}
	if maxPoints < 2 {
		maxPoints = 2
	}
	return &Sampler{recentN: recentN, maxPoints: maxPoints}
}

// SetRecorder attaches a persistence hook for appended points.
func (s *Sampler) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

func (s *Sampler) Append(p Point) {
	if p.Time.IsZero() {
		p.Time = time.Now().UTC()
	}

	s.mu.Lock()
	s.points = append(s.points, p)
	if len(s.points) > s.maxPoints {
		s.points = decimate(s.points, s.maxPoints)
	}
	rec := s.recorder
	s.mu.Unlock()

	if rec != nil {
		_ = rec.RecordEquity(p)
	}
}

// Seed loads a previously persisted series, oldest first, without invoking
// the recorder. Used on startup.
func (s *Sampler) Seed(points []Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append([]Point(nil), points...)
	if len(s.points) > s.maxPoints {
		s.points = decimate(s.points, s.maxPoints)
	}
}

// Recent returns a copy of the trailing window, oldest first.
func (s *Sampler) Recent() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.recentN
	if n > len(s.points) {
		n = len(s.points)
	}
	out := make([]Point, n)
	copy(out, s.points[len(s.points)-n:])
	return out
}

// All returns a copy of the complete stored series, oldest first.
func (s *Sampler) All() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

func (s *Sampler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

// decimate keeps every k-th point plus the first and last, choosing k so
// the result fits within max. Deterministic: the same input always yields
// the same output.
func decimate(points []Point, max int) []Point {
	if len(points) <= max {
		return points
	}

	k := (len(points) + max - 1) / max
	out := points[:0]
	last := len(points) - 1
	for i, p := range points {
		if i == 0 || i == last || i%k == 0 {
			out = append(out, p)
		}
	}
	// When last is off-stride the final point rides on top of a full
	// k-stride; drop the stride point before it to stay within max.
	if len(out) > max {
		out = append(out[:len(out)-2], out[len(out)-1])
	}
	return out
}
