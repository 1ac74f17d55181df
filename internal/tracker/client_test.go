package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func okMyself(mux *http.ServeMux) {
	mux.HandleFunc("/rest/api/2/myself", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "bot"})
	})
}

func TestNewClientUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/myself", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := newTestServer(t, mux)

	_, err := NewClient(context.Background(), Options{Host: srv.URL, User: "bot", Password: "bad", Timeout: time.Second})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNewClientNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/myself", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := newTestServer(t, mux)

	_, err := NewClient(context.Background(), Options{Host: srv.URL, Timeout: time.Second})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewClientSendsBasicAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/myself", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bot" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "bot"})
	})
	srv := newTestServer(t, mux)

	if _, err := NewClient(context.Background(), Options{Host: srv.URL, User: "bot", Password: "secret", Timeout: time.Second}); err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
}

func TestSearchDecodesIssues(t *testing.T) {
	mux := http.NewServeMux()
	okMyself(mux)
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("jql"); got != `"Epic Link" = INFRA-1` {
			t.Errorf("unexpected jql %q", got)
		}
		if got := r.URL.Query().Get("startAt"); got != "50" {
			t.Errorf("unexpected startAt %q", got)
		}
		_, _ = w.Write([]byte(`{
  "startAt": 50, "maxResults": 50, "total": 51,
  "issues": [{
    "key": "INFRA-7",
    "fields": {
      "timespent": 1800,
      "timeestimate": 3600,
      "status": {"name": "Reopened"},
      "project": {"key": "INFRA"},
      "fixVersions": [{"id": "10"}],
      "customfield_10501": "Milestone name",
      "customfield_10008": "INFRA-1"
    }
  }]
}`))
	})
	srv := newTestServer(t, mux)

	client, err := NewClient(context.Background(), Options{Host: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	res, err := client.Search(context.Background(), `"Epic Link" = INFRA-1`, 50, 50)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if res.Total != 51 {
		t.Fatalf("expected total 51, got %d", res.Total)
	}
	if len(res.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(res.Issues))
	}
	got := res.Issues[0]
	if got.Key != "INFRA-7" || got.Project != "INFRA" || got.Status != "Reopened" {
		t.Fatalf("unexpected issue: %+v", got)
	}
	if got.TimeSpent != 1800 || got.TimeEstimate != 3600 {
		t.Fatalf("unexpected times: %+v", got)
	}
	if got.Name != "Milestone name" || got.EpicLink != "INFRA-1" {
		t.Fatalf("unexpected custom fields: %+v", got)
	}
	if len(got.FixVersionIDs) != 1 || got.FixVersionIDs[0] != "10" {
		t.Fatalf("unexpected fix versions: %v", got.FixVersionIDs)
	}
}

func TestSearchServerErrorIsUnclassified(t *testing.T) {
	mux := http.NewServeMux()
	okMyself(mux)
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := newTestServer(t, mux)

	client, err := NewClient(context.Background(), Options{Host: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	_, err = client.Search(context.Background(), "project = INFRA", 0, 50)
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unclassified error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	mux := http.NewServeMux()
	okMyself(mux)
	mux.HandleFunc("/rest/api/2/version/10", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "10", "name": "2024.1", "startDate": "2024-01-01", "releaseDate": "2024-03-01"}`))
	})
	srv := newTestServer(t, mux)

	client, err := NewClient(context.Background(), Options{Host: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	v, err := client.Version(context.Background(), "10")
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v.StartDate != "2024-01-01" || v.ReleaseDate != "2024-03-01" || v.Name != "2024.1" {
		t.Fatalf("unexpected version: %+v", v)
	}

	_, err = client.Version(context.Background(), "11")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown version, got %v", err)
	}
}

func TestClassifyDNSFailure(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "https://jira.invalid", Err: &net.DNSError{Err: "no such host", Name: "jira.invalid", IsNotFound: true}}

	if got := classify(nil, err, "authenticate"); !errors.Is(got, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", got)
	}
}

func TestNewClientEmptyHost(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
