package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// newAuthedMux mirrors the production wiring: APIKeyAuth at the top,
// RequireValidUser inside the routed {user} subtree.
func newAuthedMux(keys map[string]string) http.Handler {
	mux := chi.NewRouter()
	mux.Use(APIKeyAuth(keys))
	mux.Route("/v1/{user}", func(rt chi.Router) {
		rt.Use(RequireValidUser)
		rt.Get("/scans", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func doGet(t *testing.T, h http.Handler, path, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyAuth(t *testing.T) {
	mux := newAuthedMux(map[string]string{"alice": "alice-key"})

	if rec := doGet(t, mux, "/v1/alice/scans", "alice-key"); rec.Code != http.StatusOK {
		t.Fatalf("own scans with valid key: status %d", rec.Code)
	}
	if rec := doGet(t, mux, "/v1/alice/scans", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: status %d, want 401", rec.Code)
	}
	if rec := doGet(t, mux, "/v1/alice/scans", "wrong-key"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid key: status %d, want 401", rec.Code)
	}
	// Health stays reachable without credentials.
	if rec := doGet(t, mux, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health without key: status %d", rec.Code)
	}
}

// A key valid for one user must not open another user's resources.
func TestRequireValidUserBlocksCrossUserAccess(t *testing.T) {
	mux := newAuthedMux(map[string]string{
		"alice": "alice-key",
		"bob":   "bob-key",
	})

	rec := doGet(t, mux, "/v1/bob/scans", "alice-key")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bob's scans with alice's key: status %d, want 403", rec.Code)
	}

	if rec := doGet(t, mux, "/v1/bob/scans", "bob-key"); rec.Code != http.StatusOK {
		t.Fatalf("bob's scans with bob's key: status %d", rec.Code)
	}
}

// Without configured keys there is no authenticated user and the match
// check stays out of the way (local development mode).
func TestRequireValidUserNoAuthConfigured(t *testing.T) {
	mux := chi.NewRouter()
	mux.Route("/v1/{user}", func(rt chi.Router) {
		rt.Use(RequireValidUser)
		rt.Get("/scans", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	if rec := doGet(t, mux, "/v1/anyone/scans", ""); rec.Code != http.StatusOK {
		t.Fatalf("unauthenticated access without keys: status %d", rec.Code)
	}
}
