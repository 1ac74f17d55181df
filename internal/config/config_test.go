package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `{
  "jira": {"host": "https://jira.example.com", "user": "bot", "pass": "secret"},
  "influxdb": {"host": "influx.example.com", "port": 8087, "user": "writer", "pass": "pw", "database": "milestones"}
}`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.json", validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Jira.Host != "https://jira.example.com" || cfg.Jira.User != "bot" || cfg.Jira.Pass != "secret" {
		t.Fatalf("unexpected jira section: %+v", cfg.Jira)
	}
	if cfg.InfluxDB.Port != 8087 || cfg.InfluxDB.Database != "milestones" {
		t.Fatalf("unexpected influxdb section: %+v", cfg.InfluxDB)
	}
	if cfg.InfluxDB.SSL {
		t.Fatalf("expected ssl off by default")
	}
	if !cfg.InfluxDB.VerifySSL {
		t.Fatalf("expected verify_ssl on by default")
	}
}

func TestLoadDefaultsPort(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "jira": {"host": "https://jira.example.com"},
  "influxdb": {"host": "influx", "database": "db", "ssl": true, "verify_ssl": false}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.InfluxDB.Port != 8086 {
		t.Fatalf("expected default port 8086, got %d", cfg.InfluxDB.Port)
	}
	if !cfg.InfluxDB.SSL || cfg.InfluxDB.VerifySSL {
		t.Fatalf("expected tls flags from file, got %+v", cfg.InfluxDB)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `jira:
  host: https://jira.example.com
influxdb:
  host: influx
  database: db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.InfluxDB.Host != "influx" {
		t.Fatalf("expected influx host, got %q", cfg.InfluxDB.Host)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", validConfig)
	t.Setenv("MILESTONES_JIRA_PASS", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Jira.Pass != "from-env" {
		t.Fatalf("expected env override, got %q", cfg.Jira.Pass)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "config.json", `{"jira": {"host": `)

	_, err := Load(path)
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if errors.Is(err, ErrMissing) {
		t.Fatalf("malformed file reported as missing")
	}
}

func TestLoadMissingKeys(t *testing.T) {
	path := writeConfig(t, "config.json", `{"jira": {"host": "https://jira.example.com"}}`)

	_, err := Load(path)
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestDefaultPathXDG(t *testing.T) {
	temp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", temp)
	chdir(t, t.TempDir())

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}

	expected := filepath.Join(temp, "milestone-metrics", "config.json")
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestDefaultPathWorkingDir(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile("config.json", []byte(validConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}
	if path != "config.json" {
		t.Fatalf("expected config.json, got %s", path)
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
