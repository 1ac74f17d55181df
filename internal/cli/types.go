package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/duailibe/milestone-metrics/internal/config"
	"github.com/duailibe/milestone-metrics/internal/sink"
	"github.com/duailibe/milestone-metrics/internal/tracker"
)

// Sink is the metrics store as the push command uses it.
type Sink interface {
	sink.Writer
	Ping() error
	Close() error
}

type Dependencies struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	Log        *logrus.Logger
	ConfigPath func() (string, error)
	NewTracker func(ctx context.Context, opts tracker.Options) (tracker.Searcher, error)
	NewSink    func(cfg config.InfluxDB, timeout time.Duration) (Sink, error)
}

type GlobalOptions struct {
	Verbose bool          `short:"v" help:"print a summary for every milestone"`
	DryRun  bool          `name:"dryrun" help:"check the Jira and InfluxDB connections without fetching or writing data"`
	Config  string        `help:"path to the config file (default: ./config.json, then the XDG config dir)"`
	NoColor bool          `name:"no-color" help:"disable color output"`
	NoInput bool          `name:"no-input" help:"never prompt for a missing Jira password"`
	Timeout time.Duration `help:"request timeout for Jira and InfluxDB" default:"30s"`
}

type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func exitError(code int, err error) error {
	if err == nil {
		return ExitError{Code: code, Err: errors.New("unknown error")}
	}
	return ExitError{Code: code, Err: err}
}
