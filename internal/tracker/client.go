package tracker

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"
	"github.com/pkg/errors"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Searcher is everything the aggregation needs from the tracker.
type Searcher interface {
	Search(ctx context.Context, jql string, offset, limit int) (SearchResult, error)
	Version(ctx context.Context, id string) (Version, error)
}

type Options struct {
	Host     string
	User     string
	Password string
	Timeout  time.Duration
	Fields   Fields
}

type versionPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StartDate   string `json:"startDate"`
	ReleaseDate string `json:"releaseDate"`
}

type Client struct {
	jira   *jira.Client
	fields Fields
	user   string
}

var _ Searcher = (*Client)(nil)

// NewClient connects to Jira and verifies the credentials before returning.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, errors.Wrap(ErrNotFound, "jira host is empty")
	}
	if opts.Fields == (Fields{}) {
		opts.Fields = DefaultFields()
	}

	tp := jira.BasicAuthTransport{
		Username: opts.User,
		Password: opts.Password,
	}
	httpClient := tp.Client()
	httpClient.Timeout = opts.Timeout

	jiraClient, err := jira.NewClient(httpClient, opts.Host)
	if err != nil {
		return nil, errors.Wrapf(ErrNotFound, "invalid jira host %q: %v", opts.Host, err)
	}

	c := &Client{
		jira:   jiraClient,
		fields: opts.Fields,
		user:   opts.User,
	}
	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) authenticate(ctx context.Context) error {
	req, err := c.jira.NewRequestWithContext(ctx, http.MethodGet, "rest/api/2/myself", nil)
	if err != nil {
		return errors.Wrap(err, "build authentication request")
	}
	var me jira.User
	resp, err := c.jira.Do(req, &me)
	return classify(resp, err, fmt.Sprintf("authenticate as %q", c.user))
}

func (c *Client) Search(ctx context.Context, jql string, offset, limit int) (SearchResult, error) {
	issues, resp, err := c.jira.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
		StartAt:    offset,
		MaxResults: limit,
	})
	if err := classify(resp, err, fmt.Sprintf("search %q at %d", jql, offset)); err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{Total: resp.Total, Issues: make([]Issue, 0, len(issues))}
	for _, issue := range issues {
		out.Issues = append(out.Issues, c.toIssue(issue))
	}
	return out, nil
}

func (c *Client) Version(ctx context.Context, id string) (Version, error) {
	req, err := c.jira.NewRequestWithContext(ctx, http.MethodGet, "rest/api/2/version/"+id, nil)
	if err != nil {
		return Version{}, errors.Wrapf(err, "build version %s request", id)
	}
	var v versionPayload
	resp, err := c.jira.Do(req, &v)
	if err := classify(resp, err, "get version "+id); err != nil {
		return Version{}, err
	}
	return Version{
		ID:          v.ID,
		Name:        v.Name,
		StartDate:   v.StartDate,
		ReleaseDate: v.ReleaseDate,
	}, nil
}

func (c *Client) toIssue(issue jira.Issue) Issue {
	out := Issue{Key: issue.Key}
	fields := issue.Fields
	if fields == nil {
		return out
	}
	out.Project = fields.Project.Key
	out.TimeSpent = int64(fields.TimeSpent)
	out.TimeEstimate = int64(fields.TimeEstimate)
	if fields.Status != nil {
		out.Status = fields.Status.Name
	}
	for _, fv := range fields.FixVersions {
		if fv != nil && fv.ID != "" {
			out.FixVersionIDs = append(out.FixVersionIDs, fv.ID)
		}
	}
	out.Name = unknownString(fields, c.fields.EpicName)
	out.EpicLink = unknownString(fields, c.fields.EpicLink)
	return out
}

func unknownString(fields *jira.IssueFields, id string) string {
	if id == "" || fields.Unknowns == nil {
		return ""
	}
	if s, ok := fields.Unknowns[id].(string); ok {
		return s
	}
	return ""
}

// classify maps auth and lookup failures onto ErrUnauthorized / ErrNotFound.
// Other failures keep their original error with a stack attached.
func classify(resp *jira.Response, err error, action string) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.Response != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrapf(ErrUnauthorized, "%s: jira returned %d", action, resp.StatusCode)
		case http.StatusNotFound:
			return errors.Wrapf(ErrNotFound, "%s: jira returned %d", action, resp.StatusCode)
		}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return errors.Wrapf(ErrNotFound, "%s: %v", action, dnsErr)
	}
	return errors.WithStack(errors.WithMessage(err, action))
}
