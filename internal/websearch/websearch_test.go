package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", nil, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-API-KEY"); got != "test-key" {
			t.Errorf("X-API-KEY = %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["q"] != "go concurrency" {
			t.Errorf("query = %v", req["q"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "First", "link": "https://a", "snippet": "about go"},
				{"title": "Second", "link": "https://b", "snippet": "more go"},
			},
		})
	})

	results, err := client.Search(context.Background(), "go concurrency", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "First" || results[0].Link != "https://a" {
		t.Errorf("first result = %+v", results[0])
	}
}

func TestSearch_TruncatesToN(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "1"}, {"title": "2"}, {"title": "3"},
			},
		})
	})

	results, err := client.Search(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestSearch_EmptyIsNotError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"organic": []any{}})
	})

	results, err := client.Search(context.Background(), "obscure query", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearch_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "q", 5)
	if !errors.Is(err, ErrSearchBackend) {
		t.Errorf("Search() error = %v, want ErrSearchBackend", err)
	}
}

func TestSearch_TransportError(t *testing.T) {
	client, err := NewClient("test-key", nil, WithBaseURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Search(context.Background(), "q", 5)
	if !errors.Is(err, ErrSearchBackend) {
		t.Errorf("Search() error = %v, want ErrSearchBackend", err)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient("", nil); err == nil {
		t.Error("NewClient(\"\") should fail")
	}
}

func TestAnswerBox(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answerBox": map[string]string{"answer": "42"},
		})
	})

	answer, err := client.AnswerBox(context.Background(), "meaning of life")
	if err != nil {
		t.Fatalf("AnswerBox() error = %v", err)
	}
	if answer != "42" {
		t.Errorf("answer = %q", answer)
	}
}

func TestAnswerBox_Missing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"organic": []any{}})
	})

	answer, err := client.AnswerBox(context.Background(), "q")
	if err != nil {
		t.Fatalf("AnswerBox() error = %v", err)
	}
	if answer != "" {
		t.Errorf("answer = %q, want empty", answer)
	}
}

func TestFormatResults(t *testing.T) {
	got := FormatResults("rag", []Result{
		{Title: "A", Link: "https://a", Snippet: "snip a", Date: "2024-01-01"},
		{Title: "B", Link: "https://b", Snippet: "snip b"},
	})

	for _, want := range []string{"Search Results for: 'rag'", "1. A", "URL: https://a", "Date: 2024-01-01", "2. B"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatResults_Empty(t *testing.T) {
	if got := FormatResults("q", nil); got != "No search results found." {
		t.Errorf("FormatResults(empty) = %q", got)
	}
}
