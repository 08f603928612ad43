package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/roles"
	"github.com/Skotchmaster/flower_shop/internal/tokens"
)

const (
	userIDKey = "userID"
	roleKey   = "role"
)

// Users resolves the admin behind a token so role changes and deletions apply
// without waiting for the token to expire.
type Users interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
}

type Authenticator struct {
	Secret []byte
	Users  Users
}

// RequireAdmin accepts the access token from the accessToken cookie or a
// Bearer header and puts the admin id and current role on the context.
func (a *Authenticator) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		raw := tokenFrom(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		claims, err := tokens.AccessClaimsFromToken(raw, a.Secret)
		if err != nil {
			l.Warn("auth_error", "status", 401, "reason", "invalid token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		role := claims.Role
		if a.Users != nil {
			u, err := a.Users.GetUser(c.Request().Context(), id)
			if err != nil {
				l.Warn("auth_error", "status", 401, "reason", "unknown user", "user_id", id, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "account not found")
			}
			role = u.Role
		}
		if !role.Valid() {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}

		c.Set(userIDKey, id)
		c.Set(roleKey, role)
		ctx := logging.IntoContext(c.Request().Context(), l.With("user_id", id.String(), "role", string(role)))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireRole must run after RequireAdmin.
func RequireRole(required roles.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := Role(c)
			if !roles.Allows(role, required) {
				logging.FromContext(c.Request().Context()).Warn("auth_error", "status", 403, "reason", "role", "required", string(required))
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDKey).(uuid.UUID)
	return id, ok
}

func Role(c echo.Context) (roles.Role, bool) {
	r, ok := c.Get(roleKey).(roles.Role)
	return r, ok
}

func tokenFrom(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if v, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(v)
		}
	}
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}
