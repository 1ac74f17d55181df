package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/duailibe/milestone-metrics/internal/config"
	"github.com/duailibe/milestone-metrics/internal/milestone"
	"github.com/duailibe/milestone-metrics/internal/sink"
	"github.com/duailibe/milestone-metrics/internal/tracker"
)

type PushCmd struct{}

func (c *PushCmd) Run(ctx context.Context, cmdCtx *commandContext) error {
	log := cmdCtx.logger()

	cfg, err := cmdCtx.loadConfig()
	if err != nil {
		return classified(err)
	}

	client, err := cmdCtx.deps.NewTracker(ctx, tracker.Options{
		Host:     cfg.Jira.Host,
		User:     cfg.Jira.User,
		Password: cfg.Jira.Pass,
		Timeout:  cmdCtx.global.Timeout,
		Fields:   tracker.DefaultFields(),
	})
	if err != nil {
		return classified(err)
	}
	log.WithField("host", cfg.Jira.Host).Debug("authenticated with jira")

	if cmdCtx.global.DryRun {
		return c.dryRun(cmdCtx, cfg.InfluxDB)
	}

	agg := milestone.NewAggregator(client, milestone.DefaultSettings(), log)
	milestones, err := agg.Collect(ctx)
	if err != nil {
		return classified(err)
	}

	if cmdCtx.global.Verbose {
		if err := outputFor(cmdCtx).PrintSummary(milestones); err != nil {
			return exitError(exitFailure, err)
		}
	}

	points := milestone.BatchPoints(agg.Settings().Product, milestones)

	s, err := cmdCtx.deps.NewSink(cfg.InfluxDB, cmdCtx.global.Timeout)
	if err != nil {
		return exitError(exitUsage, fmt.Errorf("configuration error: %w", err))
	}
	defer func() { _ = s.Close() }()

	if err := s.WriteBatch(points); err != nil {
		return classified(err)
	}

	log.WithFields(logrus.Fields{
		"milestones": len(milestones),
		"points":     len(points),
		"database":   cfg.InfluxDB.Database,
	}).Info("wrote milestone metrics")
	return nil
}

// dryRun runs after the Jira handshake succeeded and only pings InfluxDB.
func (c *PushCmd) dryRun(cmdCtx *commandContext, cfg config.InfluxDB) error {
	s, err := cmdCtx.deps.NewSink(cfg, cmdCtx.global.Timeout)
	if err != nil {
		return exitError(exitUsage, fmt.Errorf("configuration error: %w", err))
	}
	defer func() { _ = s.Close() }()

	if err := s.Ping(); err != nil {
		return exitError(exitSink, fmt.Errorf("influxdb %s unreachable: %w", sink.Addr(cfg), err))
	}

	_, _ = fmt.Fprintln(cmdCtx.deps.Out, "Dry run: connections to Jira and InfluxDB succeeded")
	return nil
}
