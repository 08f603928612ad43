package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/middleware/auth"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.list")

	users, err := h.Svc.List(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(l, "list_users", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": users})
}

func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.create")

	var req transport.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "user_create", "invalid body", err)
	}
	u, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "user_create", err)
	}
	l.Info("user_create_success", "user_id", u.ID, "role", string(u.Role))
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.patch")

	id, err := paramID(c, l, "user_patch")
	if err != nil {
		return err
	}
	var req transport.PatchUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "user_patch", "invalid body", err)
	}
	actor, _ := auth.UserID(c)
	u, err := h.Svc.Patch(ctx, actor, id, req)
	if err != nil {
		return fail(l, "user_patch", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users.delete")

	id, err := paramID(c, l, "user_delete")
	if err != nil {
		return err
	}
	actor, _ := auth.UserID(c)
	if err := h.Svc.Delete(ctx, actor, id); err != nil {
		return fail(l, "user_delete", err)
	}
	l.Info("user_delete_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}

type SettingsHTTP struct {
	Svc *service.SettingsService
}

func (h *SettingsHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.settings.get")

	st, err := h.Svc.Get(ctx)
	if err != nil {
		return fail(l, "get_settings", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *SettingsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.settings.update")

	var req transport.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "settings_update", "invalid body", err)
	}
	st, err := h.Svc.Update(ctx, req)
	if err != nil {
		return fail(l, "settings_update", err)
	}
	l.Info("settings_update_success")
	return c.JSON(http.StatusOK, st)
}

func (h *SettingsHTTP) UploadLogo(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.settings.logo")

	f, name, err := formImage(c, l, "settings_logo")
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := h.Svc.UploadLogo(ctx, f, name)
	if err != nil {
		return fail(l, "settings_logo", err)
	}
	return c.JSON(http.StatusOK, st)
}
