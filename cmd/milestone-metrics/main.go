package main

import (
	"os"

	"github.com/duailibe/milestone-metrics/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
