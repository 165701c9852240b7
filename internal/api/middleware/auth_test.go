package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/strategylab/internal/api/response"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		want       int
	}{
		{"valid key", "secret-key", "secret-key", http.StatusOK},
		{"missing key", "secret-key", "", http.StatusUnauthorized},
		{"wrong key", "secret-key", "wrong-key", http.StatusUnauthorized},
		{"auth disabled", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := APIKeyAuth(tt.configured)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/backtests", nil)
			if tt.provided != "" {
				req.Header.Set(APIKeyHeader, tt.provided)
			}
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestAPIKeyAuth_ErrorBody(t *testing.T) {
	wrapped := APIKeyAuth("secret-key")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backtests", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	var resp response.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %s", resp.Error.Code)
	}
}

func TestChain_Order(t *testing.T) {
	var trail []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trail = append(trail, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), tag("outer"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(trail, ","); got != "outer,inner" {
		t.Errorf("expected outer,inner, got %s", got)
	}
}
