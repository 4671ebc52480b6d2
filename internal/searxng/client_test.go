package searxng

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iWorld-y/propai/internal/search"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("categories") != "general" || q.Get("q") != "đất nền Thủ Đức" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"results":[{"title":"a","url":"https://a"},{"title":"b","url":"https://b"},{"title":"c","url":"https://c"}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, 0).Search(context.Background(), &search.Request{Query: "đất nền Thủ Đức", MaxResults: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[1].URL != "https://b" {
		t.Errorf("Results = %+v", resp.Results)
	}
}

func TestSearch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 1).Search(context.Background(), &search.Request{Query: "q"}); err == nil {
		t.Error("Search() expected error on 429")
	}
}
