package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/flower_shop/internal/cart"
	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

type cartView struct {
	Items []cart.Item     `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Added *cart.Item      `json:"added,omitempty"`
}

func viewOf(c *cart.Cart) cartView {
	return cartView{Items: c.Items(), Count: c.Count(), Total: c.Total()}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	sid, err := sessionID(c, l, "get_cart")
	if err != nil {
		return err
	}
	crt, err := h.Svc.Get(ctx, sid)
	if err != nil {
		return fail(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, viewOf(crt))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	sid, err := sessionID(c, l, "add_to_cart")
	if err != nil {
		return err
	}
	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart", "invalid body", err)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	crt, added, err := h.Svc.Add(ctx, sid, req.ID, req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart", err)
	}
	v := viewOf(crt)
	v.Added = &added
	l.Info("add_to_cart_success", "item", added.ID, "quantity", req.Quantity)
	return c.JSON(http.StatusCreated, v)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	sid, err := sessionID(c, l, "set_quantity")
	if err != nil {
		return err
	}
	var req transport.SetQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_quantity", "invalid body", err)
	}
	crt, err := h.Svc.SetQuantity(ctx, sid, c.Param("id"), req.Quantity)
	if err != nil {
		return fail(l, "set_quantity", err)
	}
	return c.JSON(http.StatusOK, viewOf(crt))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	sid, err := sessionID(c, l, "remove_from_cart")
	if err != nil {
		return err
	}
	crt, err := h.Svc.Remove(ctx, sid, c.Param("id"))
	if err != nil {
		return fail(l, "remove_from_cart", err)
	}
	return c.JSON(http.StatusOK, viewOf(crt))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	sid, err := sessionID(c, l, "clear_cart")
	if err != nil {
		return err
	}
	if err := h.Svc.Clear(ctx, sid); err != nil {
		return fail(l, "clear_cart", err)
	}
	return c.NoContent(http.StatusNoContent)
}
