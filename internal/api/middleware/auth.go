// Package middleware holds HTTP middleware specific to the API routes.
package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/newthinker/strategylab/internal/api/response"
	"github.com/newthinker/strategylab/internal/core"
)

// APIKeyHeader is the header clients put their key in.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns middleware that validates the X-API-Key header.
// If apiKey is empty, authentication is disabled.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				response.Fail(w, core.WrapError(core.ErrUnauthorized, fmt.Errorf("%s header missing", APIKeyHeader)))
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				response.Fail(w, core.WrapError(core.ErrUnauthorized, nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middleware so that the first one listed runs outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
