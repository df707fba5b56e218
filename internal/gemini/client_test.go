package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/models/gemini-2.0-flash-lite:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "k" {
			t.Errorf("key = %s", r.URL.Query().Get("key"))
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "analyze PEPE" {
			t.Errorf("unexpected prompt payload: %+v", req)
		}

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"looks risky"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "gemini-2.0-flash-lite", 5*time.Second)
	got := c.Generate(context.Background(), "analyze PEPE")
	if got != "looks risky" {
		t.Fatalf("Generate = %q", got)
	}
}

func TestGenerateFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", 5*time.Second)
	if got := c.Generate(context.Background(), "p"); got != FallbackReport {
		t.Fatalf("Generate = %q, want fallback", got)
	}
}

func TestGenerateFallsBackOnEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", 5*time.Second)
	if got := c.Generate(context.Background(), "p"); got != FallbackReport {
		t.Fatalf("Generate = %q, want fallback", got)
	}
}

func TestGenerateFallsBackOnTransportError(t *testing.T) {
	// Point at a closed server.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "k", "m", time.Second)
	if got := c.Generate(context.Background(), "p"); got != FallbackReport {
		t.Fatalf("Generate = %q, want fallback", got)
	}
}
