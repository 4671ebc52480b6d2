package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iWorld-y/propai/internal/search"
)

func TestSearch(t *testing.T) {
	var got SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"query":"q","results":[{"title":"T","url":"https://x","content":"c","score":0.9}]}`))
	}))
	defer srv.Close()

	c := NewClient("key").WithEndpoint(srv.URL)
	resp, err := c.Search(context.Background(), &search.Request{Query: "căn hộ Quận 1"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got.Query != "căn hộ Quận 1" || got.SearchDepth != "basic" || got.MaxResults != 5 || got.Topic != "general" {
		t.Errorf("request defaults not applied: %+v", got)
	}
	if len(resp.Results) != 1 || resp.Results[0].URL != "https://x" || resp.Results[0].Score != 0.9 {
		t.Errorf("Results = %+v", resp.Results)
	}
}

func TestSearch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("k").WithEndpoint(srv.URL).Search(context.Background(), &search.Request{Query: "q"})
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Errorf("Search() error = %v, want status 401", err)
	}
}
