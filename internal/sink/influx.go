package sink

import (
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/duailibe/milestone-metrics/internal/config"
)

// Point is one tagged measurement. It carries no timestamp; the writer stamps
// the whole batch at write time.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]any
}

type Writer interface {
	WriteBatch(points []Point) error
}

// WriteError wraps any failure to deliver a batch.
type WriteError struct {
	Points int
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %d points: %v", e.Points, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type Influx struct {
	client   client.Client
	database string
	timeout  time.Duration
	now      func() time.Time
}

var _ Writer = (*Influx)(nil)

func Addr(cfg config.InfluxDB) string {
	scheme := "http"
	if cfg.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)
}

func NewInflux(cfg config.InfluxDB, timeout time.Duration) (*Influx, error) {
	return newInflux(Addr(cfg), cfg, timeout)
}

func newInflux(addr string, cfg config.InfluxDB, timeout time.Duration) (*Influx, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:               addr,
		Username:           cfg.User,
		Password:           cfg.Pass,
		Timeout:            timeout,
		InsecureSkipVerify: cfg.SSL && !cfg.VerifySSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create influxdb client: %w", err)
	}
	return &Influx{
		client:   c,
		database: cfg.Database,
		timeout:  timeout,
		now:      time.Now,
	}, nil
}

func (s *Influx) Ping() error {
	if _, _, err := s.client.Ping(s.timeout); err != nil {
		return fmt.Errorf("ping influxdb: %w", err)
	}
	return nil
}

func (s *Influx) WriteBatch(points []Point) error {
	if len(points) == 0 {
		return nil
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: "s",
	})
	if err != nil {
		return &WriteError{Points: len(points), Err: err}
	}

	ts := s.now()
	for _, p := range points {
		pt, err := client.NewPoint(p.Measurement, p.Tags, p.Fields, ts)
		if err != nil {
			return &WriteError{Points: len(points), Err: fmt.Errorf("point %s: %w", p.Measurement, err)}
		}
		bp.AddPoint(pt)
	}

	if err := s.client.Write(bp); err != nil {
		return &WriteError{Points: len(points), Err: err}
	}
	return nil
}

func (s *Influx) Close() error {
	return s.client.Close()
}
