package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/stashspot/stashspot-backend/api/responses"
	"github.com/stashspot/stashspot-backend/pkg/config"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

// CORS applies the configured origin allow-list. The list is always explicit;
// a wildcard origin is never emitted.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// RejectDisallowedOrigin rejects cross-origin writes from origins outside the
// allow-list with 403. The cors handler above only withholds response headers
// and lets the request through, which is not enough for mutating routes.
func RejectDisallowedOrigin(cfg config.CORSConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[strings.ToLower(origin)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !mutatingMethods[r.Method] || allowed[strings.ToLower(origin)] {
				next.ServeHTTP(w, r)
				return
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeForbidden, "origin not allowed"))
		})
	}
}
