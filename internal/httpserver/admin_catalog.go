package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

type CategoryHTTP struct {
	Svc *service.CategoryService
}

func (h *CategoryHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.list")

	cats, err := h.Svc.List(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(l, "list_categories", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cats})
}

func (h *CategoryHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.get")

	id, err := paramID(c, l, "get_category")
	if err != nil {
		return err
	}
	cat, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_category", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.create")

	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "category_create", "invalid body", err)
	}
	cat, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "category_create", err)
	}
	l.Info("category_create_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.patch")

	id, err := paramID(c, l, "category_patch")
	if err != nil {
		return err
	}
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "category_patch", "invalid body", err)
	}
	cat, err := h.Svc.Patch(ctx, id, req)
	if err != nil {
		return fail(l, "category_patch", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.delete")

	id, err := paramID(c, l, "category_delete")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "category_delete", err)
	}
	l.Info("category_delete_success", "category_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.categories.image")

	id, err := paramID(c, l, "category_image")
	if err != nil {
		return err
	}
	f, name, err := formImage(c, l, "category_image")
	if err != nil {
		return err
	}
	defer f.Close()

	cat, err := h.Svc.UploadImage(ctx, id, f, name)
	if err != nil {
		return fail(l, "category_image", err)
	}
	return c.JSON(http.StatusOK, cat)
}

type SpecialItemHTTP struct {
	Svc *service.SpecialItemService
}

func (h *SpecialItemHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.special_items.list")

	items, err := h.Svc.List(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(l, "list_special_items", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *SpecialItemHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.special_items.get")

	id, err := paramID(c, l, "get_special_item")
	if err != nil {
		return err
	}
	it, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_special_item", err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *SpecialItemHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.special_items.create")

	var req transport.SpecialItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "special_item_create", "invalid body", err)
	}
	it, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "special_item_create", err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *SpecialItemHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.special_items.patch")

	id, err := paramID(c, l, "special_item_patch")
	if err != nil {
		return err
	}
	var req transport.SpecialItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "special_item_patch", "invalid body", err)
	}
	it, err := h.Svc.Patch(ctx, id, req)
	if err != nil {
		return fail(l, "special_item_patch", err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *SpecialItemHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.special_items.delete")

	id, err := paramID(c, l, "special_item_delete")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "special_item_delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SpecialItemHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.special_items.image")

	id, err := paramID(c, l, "special_item_image")
	if err != nil {
		return err
	}
	f, name, err := formImage(c, l, "special_item_image")
	if err != nil {
		return err
	}
	defer f.Close()

	it, err := h.Svc.UploadImage(ctx, id, f, name)
	if err != nil {
		return fail(l, "special_item_image", err)
	}
	return c.JSON(http.StatusOK, it)
}

type TimeSlotHTTP struct {
	Svc *service.TimeSlotService
}

func (h *TimeSlotHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.time_slots.list")

	slots, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "list_time_slots", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": slots})
}

func (h *TimeSlotHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.time_slots.create")

	var req transport.TimeSlotRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "time_slot_create", "invalid body", err)
	}
	slot, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "time_slot_create", err)
	}
	return c.JSON(http.StatusCreated, slot)
}

func (h *TimeSlotHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.time_slots.patch")

	id, err := paramID(c, l, "time_slot_patch")
	if err != nil {
		return err
	}
	var req transport.TimeSlotRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "time_slot_patch", "invalid body", err)
	}
	slot, err := h.Svc.Patch(ctx, id, req)
	if err != nil {
		return fail(l, "time_slot_patch", err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *TimeSlotHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.time_slots.delete")

	id, err := paramID(c, l, "time_slot_delete")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "time_slot_delete", err)
	}
	return c.NoContent(http.StatusNoContent)
}
