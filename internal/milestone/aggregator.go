package milestone

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/duailibe/milestone-metrics/internal/tracker"
)

var ErrIncompletePage = errors.New("tracker returned fewer issues than its reported total")

type Metrics struct {
	TimeSpent    int64
	TimeEstimate int64
	Total        int
	Open         int
	Resolved     int
}

// InProgress is every ticket that is neither open nor resolved.
func (m Metrics) InProgress() int {
	return m.Total - m.Open - m.Resolved
}

func (m *Metrics) addTime(spent, estimate int64) {
	m.TimeSpent += spent
	m.TimeEstimate += estimate
}

type Milestone struct {
	Epic    tracker.Issue
	Metrics Metrics
	Version *tracker.Version
}

type Aggregator struct {
	tracker  tracker.Searcher
	settings Settings
	log      logrus.FieldLogger
}

func NewAggregator(t tracker.Searcher, settings Settings, log logrus.FieldLogger) *Aggregator {
	if log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		log = logger
	}
	return &Aggregator{
		tracker:  t,
		settings: settings.withDefaults(),
		log:      log,
	}
}

func (a *Aggregator) Settings() Settings {
	return a.settings
}

// Collect aggregates every epic matched by the epic query, in tracker order.
// The first tracker error aborts the whole collection.
func (a *Aggregator) Collect(ctx context.Context) ([]Milestone, error) {
	jql := a.settings.epicQuery()
	epics, err := a.fetchAll(ctx, jql)
	if err != nil {
		return nil, fmt.Errorf("fetch epics: %w", err)
	}
	a.log.WithField("epics", len(epics)).Debug("fetched epics")

	out := make([]Milestone, 0, len(epics))
	for _, epic := range epics {
		m, err := a.Aggregate(ctx, epic)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", epic.Key, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (a *Aggregator) Aggregate(ctx context.Context, epic tracker.Issue) (Milestone, error) {
	log := a.log.WithField("epic", epic.Key)
	m := Milestone{Epic: epic}
	m.Metrics.addTime(epic.TimeSpent, epic.TimeEstimate)

	if len(epic.FixVersionIDs) > 0 {
		v, err := a.tracker.Version(ctx, epic.FixVersionIDs[0])
		if err != nil {
			return Milestone{}, fmt.Errorf("resolve version %s: %w", epic.FixVersionIDs[0], err)
		}
		m.Version = &v
	}

	children, err := a.fetchAll(ctx, childQuery(epic.Key))
	if err != nil {
		return Milestone{}, fmt.Errorf("fetch children: %w", err)
	}

	for _, child := range children {
		if child.EpicLink != "" && child.EpicLink != epic.Key {
			log.WithFields(logrus.Fields{"issue": child.Key, "epic_link": child.EpicLink}).
				Warn("skipping issue linked to another epic")
			continue
		}
		m.Metrics.Total++
		m.Metrics.addTime(child.TimeSpent, child.TimeEstimate)
		switch a.settings.Statuses.Classify(child.Status) {
		case BucketOpen:
			m.Metrics.Open++
		case BucketResolved:
			m.Metrics.Resolved++
		}
	}

	if m.Metrics.InProgress() < 0 {
		log.WithField("in_progress", m.Metrics.InProgress()).Warn("negative in-progress count")
	}
	log.WithFields(logrus.Fields{
		"total":    m.Metrics.Total,
		"open":     m.Metrics.Open,
		"resolved": m.Metrics.Resolved,
	}).Debug("aggregated epic")
	return m, nil
}

// fetchAll reads every page of a query. The first response's total fixes the
// number of pages; duplicates across pages are dropped.
func (a *Aggregator) fetchAll(ctx context.Context, jql string) ([]tracker.Issue, error) {
	size := a.settings.PageSize

	first, err := a.tracker.Search(ctx, jql, 0, size)
	if err != nil {
		return nil, err
	}
	total := first.Total
	pages := (total + size - 1) / size

	seen := make(map[string]struct{}, total)
	issues := make([]tracker.Issue, 0, total)
	add := func(page []tracker.Issue) {
		for _, issue := range page {
			if len(issues) == total {
				return
			}
			if _, dup := seen[issue.Key]; dup {
				a.log.WithFields(logrus.Fields{"jql": jql, "issue": issue.Key}).Warn("dropping duplicate issue")
				continue
			}
			seen[issue.Key] = struct{}{}
			issues = append(issues, issue)
		}
	}
	add(first.Issues)

	for i := 1; i < pages; i++ {
		offset := size * i
		a.log.WithFields(logrus.Fields{"jql": jql, "offset": offset}).Debug("fetching page")
		page, err := a.tracker.Search(ctx, jql, offset, size)
		if err != nil {
			return nil, err
		}
		add(page.Issues)
	}

	if len(issues) < total {
		return nil, fmt.Errorf("%w: %q got %d of %d", ErrIncompletePage, jql, len(issues), total)
	}
	return issues, nil
}
