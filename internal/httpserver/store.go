package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/util"
)

// StoreHTTP serves the public storefront.
type StoreHTTP struct {
	Catalog *service.CatalogService
}

func (h *StoreHTTP) Settings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.settings")

	st, err := h.Catalog.Store(ctx)
	if err != nil {
		return fail(l, "store_settings", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StoreHTTP) Contact(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.contact")

	link, err := h.Catalog.Contact(ctx)
	if err != nil {
		return fail(l, "store_contact", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"url": link})
}

func (h *StoreHTTP) Categories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.categories")

	cats, err := h.Catalog.Categories(ctx)
	if err != nil {
		return fail(l, "list_categories", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cats})
}

func (h *StoreHTTP) Products(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Catalog.Products(ctx, c.QueryParam("category"), c.QueryParam("featured") == "true", offset, limit)
	if err != nil {
		return fail(l, "list_products", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "meta": util.Meta(page, offset, limit, total)})
}

func (h *StoreHTTP) Product(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.product")

	id, err := paramID(c, l, "get_product")
	if err != nil {
		return err
	}
	p, err := h.Catalog.Product(ctx, id)
	if err != nil {
		return fail(l, "get_product", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *StoreHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Catalog.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search", err)
	}
	l.Info("search_success", "total", total)
	return c.JSON(http.StatusOK, echo.Map{"data": items, "meta": util.Meta(page, offset, limit, total)})
}

func (h *StoreHTTP) SpecialItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.special_items")

	items, err := h.Catalog.SpecialItems(ctx)
	if err != nil {
		return fail(l, "list_special_items", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

func (h *StoreHTTP) TimeSlots(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.time_slots")

	slots, err := h.Catalog.TimeSlots(ctx)
	if err != nil {
		return fail(l, "list_time_slots", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": slots})
}
