package cli

import "github.com/alecthomas/kong"

type CLI struct {
	GlobalOptions `embed:""`

	Version kong.VersionFlag `help:"Print version and exit"`

	Push PushCmd `cmd:"" default:"1" help:"Aggregate in-progress epics and write their metrics to InfluxDB"`
}

func outputFor(ctx *commandContext) output {
	return output{Out: ctx.deps.Out, Color: ctx.colorEnabled()}
}
