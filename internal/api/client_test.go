package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/questloop/livesync/internal/model"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.questloop.app", "test-token")

		if c.baseURL != "https://api.questloop.app" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.questloop.app")
		}
		if c.token != "test-token" {
			t.Errorf("token = %q, want %q", c.token, "test-token")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.questloop.app", "", WithTimeout(5*time.Second))
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://api.questloop.app", "", WithRetries(5, 2*time.Second))
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
	})
}

func TestFetchNotifications(t *testing.T) {
	id := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notifications" {
			t.Errorf("path = %q, want /api/notifications", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
		}
		resp := map[string]any{
			"notifications": []map[string]any{
				{
					"id":         id.String(),
					"kind":       "reaction",
					"title":      "Ana reacted to your goal",
					"read":       false,
					"created_at": "2026-08-30T12:00:00Z",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	ns, err := c.FetchNotifications(context.Background())
	if err != nil {
		t.Fatalf("FetchNotifications failed: %v", err)
	}

	if len(ns) != 1 {
		t.Fatalf("len = %d, want 1", len(ns))
	}
	if ns[0].ID != id {
		t.Errorf("ID = %v, want %v", ns[0].ID, id)
	}
	if ns[0].Kind != model.KindReaction {
		t.Errorf("Kind = %q, want reaction", ns[0].Kind)
	}
	if ns[0].Read {
		t.Error("Read = true, want false")
	}
}

func TestAcknowledgeRead(t *testing.T) {
	id := uuid.New()
	var called atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		wantPath := "/api/notifications/" + id.String() + "/read"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	if err := c.AcknowledgeRead(context.Background(), id); err != nil {
		t.Fatalf("AcknowledgeRead failed: %v", err)
	}
	if called.Load() != 1 {
		t.Errorf("server called %d times, want 1", called.Load())
	}
}

func TestAcknowledgeRead_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	if err := c.AcknowledgeRead(context.Background(), uuid.New()); err == nil {
		t.Fatal("AcknowledgeRead succeeded, want error")
	}
	// Acknowledgements are fire-and-forget from the store's perspective.
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1 (no retries)", calls.Load())
	}
}

func TestFetchSocialSnapshot(t *testing.T) {
	goalID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/api/goals/" + goalID.String() + "/social"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		snap := model.SocialSnapshot{
			GoalID:    goalID,
			Reactions: map[string]int{"fire": 2, "heart": 1},
			Comments:  3,
			Boosts:    1,
			Members:   5,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	snap, err := c.FetchSocialSnapshot(context.Background(), goalID)
	if err != nil {
		t.Fatalf("FetchSocialSnapshot failed: %v", err)
	}

	if snap.GoalID != goalID {
		t.Errorf("GoalID = %v, want %v", snap.GoalID, goalID)
	}
	if snap.Reactions["fire"] != 2 {
		t.Errorf("Reactions[fire] = %d, want 2", snap.Reactions["fire"])
	}
	if snap.Comments != 3 {
		t.Errorf("Comments = %d, want 3", snap.Comments)
	}
}

func TestFetchSocialSnapshot_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithRetries(3, time.Millisecond))
	if _, err := c.FetchSocialSnapshot(context.Background(), uuid.New()); err == nil {
		t.Fatal("FetchSocialSnapshot succeeded, want error")
	}
	// The reconciler retries on its next tick, not inside the fetch.
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1 (no retries)", calls.Load())
	}
}

func TestGet_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"notifications":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithRetries(3, 10*time.Millisecond))
	ns, err := c.FetchNotifications(context.Background())
	if err != nil {
		t.Fatalf("FetchNotifications failed after retries: %v", err)
	}
	if len(ns) != 0 {
		t.Errorf("len = %d, want 0", len(ns))
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestGet_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithRetries(3, 10*time.Millisecond))
	_, err := c.FetchNotifications(context.Background())
	if err == nil {
		t.Fatal("FetchNotifications succeeded, want error")
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}
