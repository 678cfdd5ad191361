package middleware

import (
	"net/http"

	"github.com/stashspot/stashspot-backend/api/responses"
	"github.com/stashspot/stashspot-backend/internal/staff"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

// RequireStaff gates a route on the staff registry. The token's role claim is
// a hint only; the registry row decides.
func RequireStaff(registry staff.Registry, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if RoleFromContext(ctx) != string(enums.ActorRoleStaff) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required"))
				return
			}

			email := EmailFromContext(ctx)
			member, err := registry.IsActiveMember(ctx, email)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !member {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
