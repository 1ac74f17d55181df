package milestone

import "github.com/duailibe/milestone-metrics/internal/sink"

const (
	MeasurementHours   = "milestone-hours"
	MeasurementTickets = "milestone-tickets"
	MeasurementDate    = "milestone-date"

	secondsPerHour = 3600
)

// Hours truncates toward zero.
func Hours(seconds int64) int64 {
	return seconds / secondsPerHour
}

// Points shapes one milestone into its hours and tickets points, plus a date
// point when a release version was resolved.
func Points(product string, m Milestone) []sink.Point {
	progress := m.Metrics.InProgress()
	if progress < 0 {
		progress = 0
	}

	points := []sink.Point{
		{
			Measurement: MeasurementHours,
			Tags:        tags(product, m.Epic.Project, m.Epic.Key),
			Fields: map[string]any{
				"time_spent":    Hours(m.Metrics.TimeSpent),
				"time_estimate": Hours(m.Metrics.TimeEstimate),
			},
		},
		{
			Measurement: MeasurementTickets,
			Tags:        tags(product, m.Epic.Project, m.Epic.Key),
			Fields: map[string]any{
				"open":     int64(m.Metrics.Open),
				"progress": int64(progress),
				"resolved": int64(m.Metrics.Resolved),
			},
		},
	}
	if m.Version != nil {
		points = append(points, sink.Point{
			Measurement: MeasurementDate,
			Tags:        tags(product, m.Epic.Project, m.Epic.Key),
			Fields: map[string]any{
				"startdate": m.Version.StartDate,
				"enddate":   m.Version.ReleaseDate,
			},
		})
	}
	return points
}

func BatchPoints(product string, milestones []Milestone) []sink.Point {
	out := make([]sink.Point, 0, 3*len(milestones))
	for _, m := range milestones {
		out = append(out, Points(product, m)...)
	}
	return out
}

func tags(product, team, milestone string) map[string]string {
	return map[string]string{
		"product":   product,
		"team":      team,
		"milestone": milestone,
	}
}
