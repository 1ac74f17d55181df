package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/duailibe/milestone-metrics/internal/milestone"
)

const separator = "------------------------"

type output struct {
	Out   io.Writer
	Color bool
}

func (o output) header() *color.Color {
	c := color.New(color.Bold)
	if o.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// PrintSummary writes one block per milestone, each closed by a separator line.
func (o output) PrintSummary(milestones []milestone.Milestone) error {
	if _, err := fmt.Fprintln(o.Out, separator); err != nil {
		return err
	}
	for _, m := range milestones {
		if err := o.printMilestone(m); err != nil {
			return err
		}
	}
	return nil
}

func (o output) printMilestone(m milestone.Milestone) error {
	if _, err := o.header().Fprintf(o.Out, "%s (%s)\n", m.Epic.Name, m.Epic.Key); err != nil {
		return err
	}

	lines := make([]string, 0, 8)
	if m.Version != nil {
		lines = append(lines, fmt.Sprintf("startdate: %s, enddate: %s", m.Version.StartDate, m.Version.ReleaseDate))
	}
	lines = append(lines,
		fmt.Sprintf("time spent: %d", milestone.Hours(m.Metrics.TimeSpent)),
		fmt.Sprintf("time estimate: %d", milestone.Hours(m.Metrics.TimeEstimate)),
		fmt.Sprintf("total: %d", m.Metrics.Total),
		fmt.Sprintf("open: %d", m.Metrics.Open),
		fmt.Sprintf("in progress: %d", m.Metrics.InProgress()),
		fmt.Sprintf("resolved: %d", m.Metrics.Resolved),
		separator,
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(o.Out, line); err != nil {
			return err
		}
	}
	return nil
}
