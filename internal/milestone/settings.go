package milestone

import (
	"fmt"
	"strings"
)

type Bucket int

const (
	BucketInProgress Bucket = iota
	BucketOpen
	BucketResolved
)

func (b Bucket) String() string {
	switch b {
	case BucketOpen:
		return "open"
	case BucketResolved:
		return "resolved"
	default:
		return "in progress"
	}
}

// StatusMap classifies status names. Names not in the map fall into
// BucketInProgress.
type StatusMap map[string]Bucket

func DefaultStatuses() StatusMap {
	return StatusMap{
		"Open":             BucketOpen,
		"Reopened":         BucketOpen,
		"Closed":           BucketResolved,
		"Resolved":         BucketResolved,
		"In Releasebranch": BucketResolved,
	}
}

func (m StatusMap) Classify(status string) Bucket {
	if b, ok := m[status]; ok {
		return b
	}
	return BucketInProgress
}

type Settings struct {
	Projects []string
	// EpicQuery overrides the query built from Projects when set.
	EpicQuery string
	PageSize  int
	Product   string
	Statuses  StatusMap
}

func DefaultSettings() Settings {
	return Settings{
		Projects: []string{"INFRA", "VIALA", "VIALJS", "GRID", "VIALI", "VM"},
		PageSize: 50,
		Product:  "voipgrid",
		Statuses: DefaultStatuses(),
	}
}

func (s Settings) epicQuery() string {
	if s.EpicQuery != "" {
		return s.EpicQuery
	}
	return fmt.Sprintf(`project in (%s) AND issuetype = Epic AND status = "In Progress"`, strings.Join(s.Projects, ", "))
}

func childQuery(epicKey string) string {
	return fmt.Sprintf(`"Epic Link" = %s`, epicKey)
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if len(s.Projects) == 0 {
		s.Projects = def.Projects
	}
	if s.PageSize <= 0 {
		s.PageSize = def.PageSize
	}
	if s.Product == "" {
		s.Product = def.Product
	}
	if s.Statuses == nil {
		s.Statuses = def.Statuses
	}
	return s
}
