package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func history(start string, revenues []float64) []DailyPoint {
	first := day(start)
	points := make([]DailyPoint, 0, len(revenues))
	for i, revenue := range revenues {
		points = append(points, DailyPoint{Day: first.AddDate(0, 0, i), Revenue: revenue})
	}
	return points
}

func TestProjectShortHistoryReturnsNil(t *testing.T) {
	assert.Nil(t, Project(nil, 7))
	assert.Nil(t, Project(history("2026-01-01", []float64{100, 110, 90, 120, 95}), 7))
	// One day short of two full seasons.
	assert.Nil(t, Project(history("2026-01-01", make([]float64, 13)), 7))
}

func TestProjectHorizonLength(t *testing.T) {
	revenues := make([]float64, 28)
	for i := range revenues {
		revenues[i] = 100 + float64(i%7)*10
	}

	out := Project(history("2026-01-01", revenues), 14)
	require.Len(t, out, 14)

	// Days continue the series without gaps or overlap.
	assert.Equal(t, day("2026-01-29"), out[0].Day)
	assert.Equal(t, day("2026-02-11"), out[13].Day)
}

func TestProjectZeroHorizon(t *testing.T) {
	assert.Nil(t, Project(history("2026-01-01", make([]float64, 28)), 0))
}

func TestProjectFillsGaps(t *testing.T) {
	// 15 calendar days with two missing in the middle: still two full
	// seasons after zero-filling.
	points := []DailyPoint{}
	for i := 0; i < 15; i++ {
		if i == 5 || i == 9 {
			continue
		}
		points = append(points, DailyPoint{
			Day:     day("2026-03-01").AddDate(0, 0, i),
			Revenue: 100,
		})
	}

	out := Project(points, 7)
	require.Len(t, out, 7)
	assert.Equal(t, day("2026-03-16"), out[0].Day)
}

func TestProjectFollowsTrend(t *testing.T) {
	// Steadily rising revenue: the projection should keep rising.
	revenues := make([]float64, 28)
	for i := range revenues {
		revenues[i] = 100 + float64(i)*5
	}

	out := Project(history("2026-01-01", revenues), 7)
	require.Len(t, out, 7)

	last := revenues[len(revenues)-1]
	assert.Greater(t, out[6].Revenue, out[0].Revenue)
	assert.Greater(t, out[0].Revenue, last*0.8)
}

func TestProjectConstantSeriesStaysNear(t *testing.T) {
	revenues := make([]float64, 28)
	for i := range revenues {
		revenues[i] = 200
	}

	out := Project(history("2026-01-01", revenues), 7)
	require.Len(t, out, 7)
	for _, point := range out {
		assert.InDelta(t, 200, point.Revenue, 1)
	}
}
