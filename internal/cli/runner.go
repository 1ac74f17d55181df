package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	pkgerrors "github.com/pkg/errors"

	"github.com/duailibe/milestone-metrics/internal/config"
	"github.com/duailibe/milestone-metrics/internal/sink"
	"github.com/duailibe/milestone-metrics/internal/tracker"
)

func Execute() int {
	return Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func Run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	deps := Dependencies{
		In:         in,
		Out:        out,
		Err:        errOut,
		ConfigPath: config.DefaultPath,
		NewTracker: func(ctx context.Context, opts tracker.Options) (tracker.Searcher, error) {
			client, err := tracker.NewClient(ctx, opts)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		NewSink: func(cfg config.InfluxDB, timeout time.Duration) (Sink, error) {
			s, err := sink.NewInflux(cfg, timeout)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}

	return ExecuteWith(deps, args)
}

func ExecuteWith(deps Dependencies, args []string) (code int) {
	cli := &CLI{}

	parser, err := kong.New(
		cli,
		kong.Name("milestone-metrics"),
		kong.Description("Publish Jira milestone progress to InfluxDB"),
		kong.Vars(kong.Vars{
			"version": VersionOutput(),
		}),
		kong.Writers(deps.Out, deps.Err),
		kong.Exit(func(code int) { panic(exitPanic{Code: code}) }),
	)
	if err != nil {
		_, _ = deps.Err.Write([]byte(err.Error() + "\n"))
		return 1
	}

	defer func() {
		if r := recover(); r != nil {
			if exit := parseExitPanic(r); exit != nil {
				code = exit.Code
				return
			}
			panic(r)
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		return handleExit(deps, wrapParseError(err))
	}

	kctx.BindTo(context.Background(), (*context.Context)(nil))
	kctx.Bind(newCommandContext(deps, &cli.GlobalOptions))

	if err := kctx.Run(); err != nil {
		return handleExit(deps, err)
	}
	return 0
}

type exitPanic struct {
	Code int
}

func parseExitPanic(val any) *exitPanic {
	switch cast := val.(type) {
	case exitPanic:
		return &cast
	case *exitPanic:
		return cast
	default:
		return nil
	}
}

func wrapParseError(err error) error {
	if err == nil {
		return nil
	}
	var parseErr *kong.ParseError
	if errors.As(err, &parseErr) {
		return exitError(exitUsage, parseErr)
	}
	return err
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func handleExit(deps Dependencies, err error) int {
	if err == nil {
		return 0
	}
	code := exitFailure
	var exitErr ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		err = exitErr.Err
	}
	if err != nil {
		_, _ = fmt.Fprintf(deps.Err, "%v\n", err)
	}
	// Unexpected failures keep their stack so they are not mistaken for
	// handled conditions.
	var st stackTracer
	if code == exitFailure && errors.As(err, &st) {
		_, _ = fmt.Fprintf(deps.Err, "%+v\n", st.StackTrace())
	}
	return code
}
