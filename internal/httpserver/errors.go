package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/checkout"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/session"
)

// fail logs err under "<op>_error" and converts it to the HTTP error the client sees.
// Unknown errors become a generic 500.
func fail(l *slog.Logger, op string, err error) error {
	var code int
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, checkout.ErrValidation), errors.Is(err, checkout.ErrEmptyCart):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, checkout.ErrOrderNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, checkout.ErrNoOrder):
		l.Warn(op+"_error", "status", http.StatusConflict, "reason", "missing prior step", "error", err)
		return echo.NewHTTPError(http.StatusConflict, echo.Map{
			"message":  err.Error(),
			"redirect": checkout.StepIdentification,
		})
	default:
		l.Error(op+"_error", "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	l.Warn(op+"_error", "status", code, "error", err)
	return echo.NewHTTPError(code, err.Error())
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func paramID(c echo.Context, l *slog.Logger, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest(l, op, "id is not a uuid", err)
	}
	return id, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

func sessionID(c echo.Context, l *slog.Logger, op string) (uuid.UUID, error) {
	sid, ok := session.ID(c)
	if !ok {
		l.Error(op+"_error", "status", http.StatusInternalServerError, "reason", "no session on context")
		return uuid.Nil, echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return sid, nil
}
