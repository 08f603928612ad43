package httpserver

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/transport"
	"github.com/Skotchmaster/flower_shop/internal/util"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, c.QueryParam("q"), c.QueryParam("category_id"), c.QueryParam("active"), offset, limit)
	if err != nil {
		return fail(l, "list_products", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "meta": util.Meta(page, offset, limit, total)})
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.get")

	id, err := paramID(c, l, "get_product")
	if err != nil {
		return err
	}
	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_product", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create", "invalid body", err)
	}
	p, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "product_create", err)
	}
	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patch_product")

	id, err := paramID(c, l, "product_patch")
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_patch", "invalid body", err)
	}
	p, err := h.Svc.Patch(ctx, id, req)
	if err != nil {
		return fail(l, "product_patch", err)
	}
	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_product")

	id, err := paramID(c, l, "product_delete")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "product_delete", err)
	}
	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload_product_image")

	id, err := paramID(c, l, "product_image")
	if err != nil {
		return err
	}
	f, name, err := formImage(c, l, "product_image")
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := h.Svc.UploadImage(ctx, id, f, name)
	if err != nil {
		return fail(l, "product_image", err)
	}
	l.Info("upload_product_image_success", "product_id", id)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) DeleteImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_product_image")

	id, err := paramID(c, l, "product_image_delete")
	if err != nil {
		return err
	}
	imageID, err := uuidParam(c, "imageID")
	if err != nil {
		return badRequest(l, "product_image_delete", "image id is not a uuid", err)
	}
	p, err := h.Svc.DeleteImage(ctx, id, imageID)
	if err != nil {
		return fail(l, "product_image_delete", err)
	}
	return c.JSON(http.StatusOK, p)
}

// formImage opens the "image" multipart field.
func formImage(c echo.Context, l *slog.Logger, op string) (multipart.File, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, "", badRequest(l, op, "image file is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", badRequest(l, op, "cannot read image", err)
	}
	return f, fh.Filename, nil
}
