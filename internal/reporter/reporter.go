package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/middrag/middrag/internal/database"
	"github.com/middrag/middrag/internal/models"
	"github.com/middrag/middrag/pkg/utils"
)

// Source is the part of the repository reports are built from.
type Source interface {
	GetActionSummarySince(since time.Time) ([]models.ActionSummary, error)
	GetDirectionSummarySince(since time.Time) ([]models.DirectionSummary, error)
}

var _ Source = (*database.Repository)(nil)

// Reporter handles report generation
type Reporter struct {
	repo Source
	now  func() time.Time
}

// New creates a new reporter
func New(repo Source) *Reporter {
	return &Reporter{
		repo: repo,
		now:  time.Now,
	}
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := r.Period(periodType)
	if err != nil {
		return nil, err
	}

	actions, err := r.repo.GetActionSummarySince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get action summary: %w", err)
	}

	directions, err := r.repo.GetDirectionSummarySince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get direction summary: %w", err)
	}

	report := &models.Report{
		Period:      *period,
		Actions:     actions,
		Directions:  directions,
		GeneratedAt: r.now(),
	}

	for _, a := range actions {
		report.TotalEvents += a.EventCount
		report.BoundaryHits += a.Boundary
		report.Failures += a.Failed
	}

	if report.TotalEvents > 0 {
		total := float64(report.TotalEvents)
		for i := range report.Actions {
			report.Actions[i].Percentage = float64(report.Actions[i].EventCount) / total * 100.0
		}
		for i := range report.Directions {
			report.Directions[i].Percentage = float64(report.Directions[i].EventCount) / total * 100.0
		}
	}

	return report, nil
}

// Period calculates the time range for a report period: day, week or month
func (r *Reporter) Period(periodType string) (*models.ReportPeriod, error) {
	now := r.now()
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gesture Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Gestures: %d  Boundary hits: %d  Failures: %d\n\n",
		report.TotalEvents, report.BoundaryHits, report.Failures)

	if len(report.Actions) == 0 {
		b.WriteString("No gestures recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-24s %8s %8s %8s %8s %9s\n", "Action", "Count", "Switched", "Boundary", "Failed", "Percent")
	b.WriteString(strings.Repeat("-", 72) + "\n")
	for _, a := range report.Actions {
		fmt.Fprintf(&b, "%-24s %8d %8d %8d %8d %8.1f%%\n",
			utils.Truncate(a.Action, 24),
			a.EventCount,
			a.Switched,
			a.Boundary,
			a.Failed,
			a.Percentage)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%-24s %8s %9s\n", "Direction", "Count", "Percent")
	b.WriteString(strings.Repeat("-", 43) + "\n")
	for _, d := range report.Directions {
		fmt.Fprintf(&b, "%-24s %8d %8.1f%%\n", d.Direction, d.EventCount, d.Percentage)
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}
