package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/synthmesh/datagen-api/pkg/requestid"
)

// RequestID takes the request ID from the x-request-id header or generates
// a fresh one, and injects it into the request's context so every layer
// below can stamp it on logs and error responses.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("x-request-id")
		if reqID == "" {
			reqID = middleware.GetReqID(r.Context())
		}
		if reqID == "" {
			reqID = requestid.Generate()
		}

		ctx := requestid.ToContext(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
