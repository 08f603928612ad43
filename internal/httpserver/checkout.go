package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/flower_shop/internal/checkout"
	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/postal"
)

type CheckoutHTTP struct {
	Svc *checkout.Service
}

func (h *CheckoutHTTP) State(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.state")

	sid, err := sessionID(c, l, "checkout_state")
	if err != nil {
		return err
	}
	st, err := h.Svc.State(ctx, sid)
	if err != nil {
		return fail(l, "checkout_state", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHTTP) Identification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.identification")

	sid, err := sessionID(c, l, "identification")
	if err != nil {
		return err
	}
	var req checkout.Identification
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "identification", "invalid body", err)
	}
	o, err := h.Svc.Identify(ctx, sid, req)
	if err != nil {
		return fail(l, "identification", err)
	}
	l.Info("identification_success", "order_number", o.OrderNumber)
	return c.JSON(http.StatusOK, echo.Map{"order": o, "next": checkout.StepDelivery})
}

// PostalLookup fills address fields. A failed lookup is not an error for the
// shopper, who can still type the address.
func (h *CheckoutHTTP) PostalLookup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.postal")

	addr, err := h.Svc.LookupAddress(ctx, c.Param("cep"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"found": true, "address": addr})
	case errors.Is(err, checkout.ErrValidation):
		return fail(l, "postal_lookup", err)
	case errors.Is(err, postal.ErrNotFound):
		l.Info("postal_lookup_miss", "cep", c.Param("cep"))
		return c.JSON(http.StatusOK, echo.Map{"found": false, "warning": "postal code not found, fill in the address manually"})
	default:
		l.Warn("postal_lookup_error", "status", http.StatusOK, "reason", "lookup unavailable", "error", err)
		return c.JSON(http.StatusOK, echo.Map{"found": false, "warning": "address lookup unavailable, fill in the address manually"})
	}
}

func (h *CheckoutHTTP) Delivery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.delivery")

	sid, err := sessionID(c, l, "delivery")
	if err != nil {
		return err
	}
	var req checkout.Delivery
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "delivery", "invalid body", err)
	}
	o, err := h.Svc.Deliver(ctx, sid, req)
	if err != nil {
		return fail(l, "delivery", err)
	}
	l.Info("delivery_success", "order_number", o.OrderNumber)
	return c.JSON(http.StatusOK, echo.Map{"order": o, "next": checkout.StepPersonalization})
}

func (h *CheckoutHTTP) Personalization(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.personalization")

	sid, err := sessionID(c, l, "personalization")
	if err != nil {
		return err
	}
	var req checkout.Personalization
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "personalization", "invalid body", err)
	}
	o, err := h.Svc.Personalize(ctx, sid, req)
	if err != nil {
		return fail(l, "personalization", err)
	}
	l.Info("personalization_success", "order_number", o.OrderNumber)
	return c.JSON(http.StatusOK, echo.Map{"order": o, "next": checkout.StepPayment})
}

func (h *CheckoutHTTP) Payment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.payment")

	sid, err := sessionID(c, l, "payment")
	if err != nil {
		return err
	}
	conf, err := h.Svc.Pay(ctx, sid)
	if err != nil {
		return fail(l, "payment", err)
	}
	l.Info("payment_success", "order_number", conf.Order.OrderNumber, "total", conf.Order.TotalPrice.String())
	return c.JSON(http.StatusOK, conf)
}

// Order reopens the confirmation of the order this session just paid for.
func (h *CheckoutHTTP) Order(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.order")

	sid, err := sessionID(c, l, "get_order")
	if err != nil {
		return err
	}
	conf, err := h.Svc.Placed(ctx, sid, c.Param("number"))
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, conf)
}
