package session

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/tokens"
)

const ctxKey = "session_id"

// Middleware resolves the shopper session from the cookie or header and starts a
// fresh one when it is missing, tampered with or expired. Storage failures are a
// 500 so the client retries with the same token.
func (m *Manager) Middleware(secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)

			raw := c.Request().Header.Get(tokens.SessionHeader)
			if raw == "" {
				if ck, err := c.Cookie(tokens.SessionCookie); err == nil {
					raw = ck.Value
				}
			}

			if raw != "" {
				sid, err := m.Resolve(ctx, raw)
				switch {
				case err == nil:
					c.Set(ctxKey, sid)
					return next(c)
				case errors.Is(err, ErrExpired), errors.Is(err, tokens.ErrInvalidToken):
					l.Info("session_renewed", "reason", err.Error())
				default:
					l.Error("session_resolve_error", "status", http.StatusInternalServerError, "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
				}
			}

			sid, tok, exp, err := m.Issue(ctx)
			if err != nil {
				l.Error("session_issue_error", "status", http.StatusInternalServerError, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
			}
			c.SetCookie(tokens.CreateCookie(tokens.SessionCookie, tok, "/", exp, secure))
			c.Response().Header().Set(tokens.SessionHeader, tok)
			c.Set(ctxKey, sid)
			return next(c)
		}
	}
}

// ID returns the session id put on the context by Middleware.
func ID(c echo.Context) (uuid.UUID, bool) {
	sid, ok := c.Get(ctxKey).(uuid.UUID)
	return sid, ok
}

// WithID is used by tests and internal callers that already hold a session id.
func WithID(c echo.Context, sid uuid.UUID) {
	c.Set(ctxKey, sid)
}
