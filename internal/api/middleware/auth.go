package middleware

import (
	"context"
	"errors"
	"net/http"

	"leetcode_backend/internal/common"
	"leetcode_backend/internal/common/security"
	"leetcode_backend/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// Authenticator rejects requests without a valid token. It expects
// jwtauth.Verifier to have run.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := withIdentity(r.Context())
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalIdentity attaches the caller's identity when a valid token is
// present and lets anonymous requests through unchanged.
func OptionalIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctx, err := withIdentity(r.Context()); err == nil {
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func withIdentity(ctx context.Context) (context.Context, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, jwtauth.ErrNoTokenFound
	}

	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return nil, err
	}
	userRole, err := security.GetUserRoleFromClaims(claims)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, UserIDCtxKey, userID)
	ctx = context.WithValue(ctx, UserRoleCtxKey, userRole)
	return ctx, nil
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}

// IdentityFromContext is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		return model.Identity{}, false
	}
	role, _ := GetUserRoleFromContext(ctx)
	return model.Identity{UserID: userID, Role: role}, true
}
