package jira

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spiffcs/evidence-collector/internal/constants"
	"github.com/spiffcs/evidence-collector/internal/model"
)

const proj1Response = `{"total":1, "issues":[{"key":"PROJ-1","self":"https://jira/rest/api/2/issue/1","fields":{"summary":"Fix bug","issuetype":{"name":"Bug"},"project":{"name":"PROJ"},"reporter":{"displayName":"A"},"assignee":{"displayName":"B"},"status":{"name":"Done"},"created":"2024-01-01","resolutiondate":"2024-01-02"}}]}`

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("jql"); got != "project = PROJ" {
			t.Errorf("jql = %q", got)
		}
		if got := q.Get("fields"); got != "issuetype,project,summary,assignee,reporter,status,created,resolutiondate" {
			t.Errorf("fields = %q", got)
		}
		if got := q.Get("maxResults"); got != "1000" {
			t.Errorf("maxResults = %q", got)
		}
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:pass"))
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("Authorization = %q, want %q", got, wantAuth)
		}
		if got := r.UserAgent(); got != constants.UserAgent {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = fmt.Fprint(w, proj1Response)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", "user", "pass", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	got, err := c.Search(context.Background(), "project = PROJ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := &model.IssueSearchResult{
		Total: 1,
		Issues: []model.Issue{{
			Key:      "PROJ-1",
			URL:      srv.URL + "/browse/PROJ-1",
			Summary:  "Fix bug",
			Type:     "Bug",
			Project:  "PROJ",
			Reporter: "A",
			Assignee: "B",
			Status:   "Done",
			Created:  "2024-01-01",
			Resolved: "2024-01-02",
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchToleratesMissingPeople(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"total":1,"issues":[{"key":"PROJ-2","fields":{"issuetype":{"name":"Task"},"assignee":null,"reporter":{"name":"jdoe"}}}]}`)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, "u", "p", WithHTTPClient(srv.Client()))
	got, err := c.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	issue := got.Issues[0]
	if issue.Assignee != "" || issue.Reporter != "jdoe" || issue.Status != "" || issue.Resolved != "" {
		t.Errorf("Search() issue = %+v", issue)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errorMessages":["no"]}`, model.ErrTransport},
		{"bad jql", http.StatusBadRequest, `{"errorMessages":["bad jql"]}`, model.ErrTransport},
		{"invalid json", http.StatusOK, `{"total":`, model.ErrParse},
		{"wrong shape", http.StatusOK, `{"issues":{"key":"x"}}`, model.ErrParse},
		{"empty object", http.StatusOK, `{}`, model.ErrParse},
		{"null issues", http.StatusOK, `{"total":0,"issues":null}`, model.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c, _ := NewClient(srv.URL, "u", "p", WithHTTPClient(srv.Client()))
			_, err := c.Search(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Errorf("Search() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSearchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := NewClient(url, "u", "p")
	if _, err := c.Search(context.Background(), "x"); !errors.Is(err, model.ErrTransport) {
		t.Errorf("Search() error = %v, want ErrTransport", err)
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient("", "u", "p"); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("NewClient() error = %v, want ErrConfiguration", err)
	}
}

func TestNewClientHasNoRequestTimeout(t *testing.T) {
	c, err := NewClient("http://jira.invalid", "u", "p")
	if err != nil {
		t.Fatal(err)
	}
	if c.httpClient.Timeout != 0 {
		t.Errorf("http client timeout = %v, want none", c.httpClient.Timeout)
	}
}
