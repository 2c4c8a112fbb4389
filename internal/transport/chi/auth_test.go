package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedHandler(apiKeys []string) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return BearerAuthMiddleware(apiKeys)(inner)
}

func TestBearerAuth_Disabled(t *testing.T) {
	h := authedHandler(nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want pass-through with no keys", rec.Code)
	}
}

func TestBearerAuth_ValidKey(t *testing.T) {
	h := authedHandler([]string{"secret-key"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	h := authedHandler([]string{"secret-key"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuth_WrongScheme(t *testing.T) {
	h := authedHandler([]string{"secret-key"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", nil)
	req.Header.Set("Authorization", "Basic secret-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuth_InvalidKey(t *testing.T) {
	h := authedHandler([]string{"secret-key"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/query", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuth_HealthExempt(t *testing.T) {
	h := authedHandler([]string{"secret-key"})
	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want exempt 200", path, rec.Code)
		}
	}
}
