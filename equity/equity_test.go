package equity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesOf(n int) []Point {
	base := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{
			Time:        base.Add(time.Duration(i) * time.Minute),
			TotalEquity: 100000 + float64(i),
		}
	}
	return points
}

func TestRecentReturnsBoundedTrailingWindow(t *testing.T) {
	t.Parallel()

	s := NewSampler(3, 1000)
	for _, p := range seriesOf(10) {
		s.Append(p)
	}

	recent := s.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, 100007.0, recent[0].TotalEquity)
	assert.Equal(t, 100009.0, recent[2].TotalEquity)

	all := s.All()
	assert.Len(t, all, 10)
	assert.Equal(t, 100000.0, all[0].TotalEquity)
}

func TestDecimationPreservesEndpoints(t *testing.T) {
	t.Parallel()

	points := seriesOf(500)
	s := NewSampler(30, 100)
	for _, p := range points {
		s.Append(p)
	}

	all := s.All()
	assert.LessOrEqual(t, len(all), 100)
	assert.Equal(t, points[0].Time, all[0].Time, "first point retained")
	assert.Equal(t, points[len(points)-1].Time, all[len(all)-1].Time, "last point retained")

	for i := 1; i < len(all); i++ {
		assert.True(t, all[i].Time.After(all[i-1].Time), "series stays ordered")
	}
}

// Exact stride multiples are the tricky case: the final point lands on top
// of an already-full stride and must displace a stride point, not exceed max.
func TestDecimationNeverExceedsCap(t *testing.T) {
	t.Parallel()

	for _, n := range []int{11, 20, 21, 199, 200, 201} {
		points := seriesOf(n)
		got := decimate(append([]Point(nil), points...), 10)
		assert.LessOrEqual(t, len(got), 10, "n=%d", n)
		assert.Equal(t, points[0].Time, got[0].Time, "n=%d first point", n)
		assert.Equal(t, points[n-1].Time, got[len(got)-1].Time, "n=%d last point", n)
	}

	s := NewSampler(5, 10)
	s.Seed(seriesOf(20))
	assert.LessOrEqual(t, s.Len(), 10)
}

func TestDecimationIsDeterministic(t *testing.T) {
	t.Parallel()

	points := seriesOf(997)
	a := decimate(append([]Point(nil), points...), 100)
	b := decimate(append([]Point(nil), points...), 100)
	assert.Equal(t, a, b)
}

func TestRecentOnShortSeries(t *testing.T) {
	t.Parallel()

	s := NewSampler(30, 100)
	s.Append(Point{TotalEquity: 1})
	assert.Len(t, s.Recent(), 1)
	assert.Len(t, s.All(), 1)
}

func TestSeedLoadsPersistedSeries(t *testing.T) {
	t.Parallel()

	s := NewSampler(5, 100)
	s.Seed(seriesOf(8))
	assert.Equal(t, 8, s.Len())
	assert.Len(t, s.Recent(), 5)
}

type captureRecorder struct{ points []Point }

func (c *captureRecorder) RecordEquity(p Point) error {
	c.points = append(c.points, p)
	return nil
}

func TestAppendNotifiesRecorder(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	s := NewSampler(5, 100)
	s.SetRecorder(rec)

	s.Append(Point{TotalEquity: 100000})
	require.Len(t, rec.points, 1)
	assert.False(t, rec.points[0].Time.IsZero())
}
