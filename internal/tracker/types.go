package tracker

// Issue is the subset of a Jira issue the aggregation needs. Epics and their
// child issues share this shape.
type Issue struct {
	Key           string
	Name          string
	Project       string
	Status        string
	EpicLink      string
	TimeSpent     int64
	TimeEstimate  int64
	FixVersionIDs []string
}

type SearchResult struct {
	Total  int
	Issues []Issue
}

// Version dates are passed through as the tracker reports them, e.g. "2024-03-01".
type Version struct {
	ID          string
	Name        string
	StartDate   string
	ReleaseDate string
}

// Fields maps custom field IDs that vary between Jira instances.
type Fields struct {
	EpicName string
	EpicLink string
}

func DefaultFields() Fields {
	return Fields{
		EpicName: "customfield_10501",
		EpicLink: "customfield_10008",
	}
}
