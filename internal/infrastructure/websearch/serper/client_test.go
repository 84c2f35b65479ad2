package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchReturnsCappedResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-API-KEY"); got != "test-key" {
			t.Fatalf("missing api key header, got %q", got)
		}
		var req struct {
			Q   string `json:"q"`
			Num int    `json:"num"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Q != "tuyển sinh BDU 2026" || req.Num != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "Trang tuyển sinh", "link": "https://bdu.edu.vn", "snippet": "thông báo"},
				{"title": "Báo", "link": "https://example.com/a", "snippet": "tin tức"},
				{"title": "Thừa", "link": "https://example.com/b", "snippet": "bị cắt"},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", Options{MaxResults: 2})
	results, err := client.Search(context.Background(), "tuyển sinh BDU 2026")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected results capped at 2, got %d", len(results))
	}
	if results[0].Title != "Trang tuyển sinh" || results[0].URL != "https://bdu.edu.vn" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
}

func TestSearchNoOrganicResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer server.Close()

	client := New(server.URL, "k", Options{})
	results, err := client.Search(context.Background(), "câu hỏi")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusForbidden)
	}))
	defer server.Close()

	client := New(server.URL, "bad", Options{})
	if _, err := client.Search(context.Background(), "câu hỏi"); err == nil {
		t.Fatalf("expected error")
	}
}
