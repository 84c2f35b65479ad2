package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/bdu_chunks_gemma/points/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Vector      []float32 `json:"vector"`
			Limit       int       `json:"limit"`
			WithPayload bool      `json:"with_payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Limit != 4 || !req.WithPayload || len(req.Vector) != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"payload": map[string]any{
					"chunk_id":     "c1",
					"url":          "https://bdu.edu.vn/hoc-phi",
					"content":      "học phí ngành CNTT",
					"full_content": "học phí ngành CNTT năm 2025 là ...",
				}},
				{"payload": map[string]any{
					"chunk_id": "c2",
					"url":      "https://bdu.edu.vn/nganh",
					"content":  "danh sách ngành",
				}},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "bdu_chunks_gemma", Options{})
	chunks, err := client.Search(context.Background(), []float32{0.1, 0.2}, 4)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ChunkID != "c1" || chunks[0].FullContent == "" {
		t.Fatalf("unexpected first chunk: %+v", chunks[0])
	}
	if chunks[1].FullContent != "" {
		t.Fatalf("missing payload key must decode to empty string")
	}
	if chunks[0].RelevanceScore != 0 {
		t.Fatalf("search results must carry no score; grading attaches it")
	}
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "missing", Options{})
	if _, err := client.Search(context.Background(), []float32{0.1}, 4); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPayloadStringTolerantOfTypes(t *testing.T) {
	payload := map[string]any{"chunk_id": 42, "url": "ok"}
	if got := payloadString(payload, "chunk_id"); got != "" {
		t.Fatalf("non-string payload value must decode to empty, got %q", got)
	}
	if got := payloadString(payload, "url"); got != "ok" {
		t.Fatalf("expected 'ok', got %q", got)
	}
	if got := payloadString(nil, "url"); got != "" {
		t.Fatalf("nil payload must decode to empty")
	}
}
