package searchindex

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "hospital beds" || q.Get("offset") != "20" || q.Get("limit") != "20" || q.Get("order") != "relevance" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"description": "hospital beds",
			"total": 2,
			"terms": ["hospital", "beds"],
			"hits": [
				{"gid": "uk.org.publicwhip/wrans/2015-03-02a.10.1", "relevance": 71.5, "collapse_group": 3},
				{"gid": "uk.org.publicwhip/calendar/5", "relevance": 60}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, slog.New(slog.DiscardHandler))
	page, err := client.Search(context.Background(), "hospital beds", 20, 20, "relevance")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 2 || len(page.Hits) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Hits[0].Relevance != 71.5 || page.Hits[0].CollapseGroup != 3 {
		t.Errorf("hit = %+v", page.Hits[0])
	}

	got := page.Highlighter.Highlight("Lots of hospital beds, hospitality aside.")
	want := `Lots of <span class="hi">hospital</span> <span class="hi">beds</span>, hospitality aside.`
	if got != want {
		t.Errorf("highlight = %q, want %q", got, want)
	}
	if off := page.Highlighter.FirstMatch("some beds here"); off != 5 {
		t.Errorf("first match = %d, want 5", off)
	}
}

func TestClientSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, slog.New(slog.DiscardHandler))
	if _, err := client.Search(context.Background(), "x", 0, 20, "relevance"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestFallbackTerms(t *testing.T) {
	got := fallbackTerms(`"hospital beds" -exclude speaker:77 nhs`)
	want := []string{"hospital", `beds`, "nhs"}
	if len(got) != len(want) {
		t.Fatalf("terms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("terms = %v, want %v", got, want)
		}
	}
}
