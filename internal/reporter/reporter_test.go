package reporter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/middrag/middrag/internal/models"
)

type fakeSource struct {
	actions    []models.ActionSummary
	directions []models.DirectionSummary
	since      time.Time
	err        error
}

func (f *fakeSource) GetActionSummarySince(since time.Time) ([]models.ActionSummary, error) {
	f.since = since
	return f.actions, f.err
}

func (f *fakeSource) GetDirectionSummarySince(since time.Time) ([]models.DirectionSummary, error) {
	return f.directions, f.err
}

func fixedReporter(src Source, now time.Time) *Reporter {
	r := New(src)
	r.now = func() time.Time { return now }
	return r
}

func TestGetPeriod(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)
	r := fixedReporter(&fakeSource{}, now)

	tests := []struct {
		period string
		start  time.Time
		end    time.Time
	}{
		{"day", time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC)},
		{"week", time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)},
		{"month", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			p, err := r.Period(tt.period)
			require.NoError(t, err)
			assert.Equal(t, tt.start, p.Start)
			assert.Equal(t, tt.end, p.End)
		})
	}

	_, err := r.Period("year")
	assert.Error(t, err)
}

func TestWeekStartsMondayOnSunday(t *testing.T) {
	now := time.Date(2024, 5, 19, 10, 0, 0, 0, time.UTC)
	p, err := fixedReporter(&fakeSource{}, now).Period("week")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), p.Start)
}

func TestGenerateReport(t *testing.T) {
	src := &fakeSource{
		actions: []models.ActionSummary{
			{Action: "switch-prev-app", EventCount: 3, Switched: 2, Boundary: 1},
			{Action: "show-desktop", EventCount: 1, Failed: 1},
		},
		directions: []models.DirectionSummary{
			{Direction: "left", EventCount: 3},
			{Direction: "down", EventCount: 1},
		},
	}
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)
	report, err := fixedReporter(src, now).GenerateReport("day")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), src.since)
	assert.Equal(t, 4, report.TotalEvents)
	assert.Equal(t, 1, report.BoundaryHits)
	assert.Equal(t, 1, report.Failures)
	assert.InDelta(t, 75.0, report.Actions[0].Percentage, 0.001)
	assert.InDelta(t, 25.0, report.Directions[1].Percentage, 0.001)

	text := New(src).FormatReportText(report)
	assert.Contains(t, text, "Gestures: 4")
	assert.Contains(t, text, "switch-prev-app")
	assert.Contains(t, text, "75.0%")

	out, err := New(src).FormatReportJSON(report)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.EqualValues(t, 4, decoded["total_events"])
}

func TestGenerateReportEmpty(t *testing.T) {
	r := New(&fakeSource{})
	report, err := r.GenerateReport("month")
	require.NoError(t, err)
	assert.Zero(t, report.TotalEvents)
	assert.Contains(t, r.FormatReportText(report), "No gestures recorded")
}

func TestGenerateReportError(t *testing.T) {
	_, err := New(&fakeSource{err: errors.New("disk gone")}).GenerateReport("day")
	assert.ErrorContains(t, err, "disk gone")
}
