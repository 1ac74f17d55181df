package cli

import (
	"errors"
	"fmt"

	"github.com/duailibe/milestone-metrics/internal/config"
	"github.com/duailibe/milestone-metrics/internal/sink"
	"github.com/duailibe/milestone-metrics/internal/tracker"
)

const (
	exitFailure      = 1
	exitUsage        = 2
	exitUnauthorized = 3
	exitNotFound     = 4
	exitSink         = 5
)

func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return exitUsage
	}
	if errors.Is(err, tracker.ErrUnauthorized) {
		return exitUnauthorized
	}
	if errors.Is(err, tracker.ErrNotFound) {
		return exitNotFound
	}
	var writeErr *sink.WriteError
	if errors.As(err, &writeErr) {
		return exitSink
	}
	return exitFailure
}

// classified attaches an exit code and a message naming what to check.
func classified(err error) error {
	code := mapErrorToExitCode(err)
	switch code {
	case exitUsage:
		err = fmt.Errorf("configuration error: %w", err)
	case exitUnauthorized:
		err = fmt.Errorf("jira authorization failed, check jira.user and jira.pass: %w", err)
	case exitNotFound:
		err = fmt.Errorf("jira host or resource not found, check jira.host: %w", err)
	case exitSink:
		err = fmt.Errorf("influxdb write failed: %w", err)
	}
	return exitError(code, err)
}
