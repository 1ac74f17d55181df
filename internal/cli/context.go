package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/duailibe/milestone-metrics/internal/config"
)

type commandContext struct {
	deps   Dependencies
	global *GlobalOptions
	log    *logrus.Logger
}

func newCommandContext(deps Dependencies, global *GlobalOptions) *commandContext {
	return &commandContext{deps: deps, global: global}
}

func (c *commandContext) logger() *logrus.Logger {
	if c.log != nil {
		return c.log
	}
	log := c.deps.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(c.deps.Err)
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: !c.colorEnabled(),
		})
	}
	if c.global.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	c.log = log
	return log
}

func (c *commandContext) configPath() (string, error) {
	if c.global.Config != "" {
		return c.global.Config, nil
	}
	if c.deps.ConfigPath == nil {
		return "", errors.New("no config path configured")
	}
	return c.deps.ConfigPath()
}

func (c *commandContext) loadConfig() (config.Config, error) {
	path, err := c.configPath()
	if err != nil {
		return config.Config{}, &config.Error{Path: path, Err: err}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	c.logger().WithField("path", path).Debug("loaded config")

	if cfg.Jira.Pass == "" && !c.global.NoInput {
		pass, err := readPassword(c.deps.In, c.deps.Err, cfg.Jira.User)
		if err != nil {
			return config.Config{}, &config.Error{Path: path, Err: err}
		}
		cfg.Jira.Pass = pass
	}
	return cfg, nil
}

func (c *commandContext) colorEnabled() bool {
	if c.global.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(c.deps.Out)
}

func isTerminal(w any) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// readPassword prompts only on an interactive terminal; otherwise the empty
// password is kept and Jira decides.
func readPassword(in io.Reader, prompt io.Writer, user string) (string, error) {
	file, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return "", nil
	}
	_, _ = fmt.Fprintf(prompt, "Jira password for %s: ", user)
	b, err := term.ReadPassword(int(file.Fd()))
	_, _ = fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read jira password: %w", err)
	}
	return string(b), nil
}
