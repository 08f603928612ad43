package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/flower_shop/internal/checkout"
	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/transport"
	"github.com/Skotchmaster/flower_shop/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.List(ctx, c.QueryParam("status"), c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": orders, "meta": util.Meta(page, offset, limit, total)})
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders.get")

	id, err := paramID(c, l, "get_order")
	if err != nil {
		return err
	}
	o, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": o, "summary": checkout.BuildSummary(o)})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders.status")

	id, err := paramID(c, l, "order_status")
	if err != nil {
		return err
	}
	var req transport.OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "order_status", "invalid body", err)
	}
	o, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "order_status", err)
	}
	l.Info("order_status_success", "order_number", o.OrderNumber, "status", string(o.Status))
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders.delete")

	id, err := paramID(c, l, "order_delete")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "order_delete", err)
	}
	l.Info("order_delete_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}

type DashboardHTTP struct {
	Svc *service.DashboardService
}

func (h *DashboardHTTP) Metrics(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	m, err := h.Svc.Metrics(ctx, util.ParseIntDefault(c.QueryParam("days"), 30))
	if err != nil {
		return fail(l, "dashboard", err)
	}
	return c.JSON(http.StatusOK, m)
}
