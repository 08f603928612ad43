package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/middleware/auth"
	"github.com/Skotchmaster/flower_shop/internal/middleware/csrf"
	"github.com/Skotchmaster/flower_shop/internal/roles"
	"github.com/Skotchmaster/flower_shop/internal/session"
)

type Deps struct {
	Store     *StoreHTTP
	Cart      *CartHTTP
	Checkout  *CheckoutHTTP
	Auth      *AuthHTTP
	Products  *ProductHTTP
	Category  *CategoryHTTP
	Special   *SpecialItemHTTP
	TimeSlots *TimeSlotHTTP
	Orders    *OrderHTTP
	Users     *UserHTTP
	Settings  *SettingsHTTP
	Dashboard *DashboardHTTP

	Sessions      *session.Manager
	Authenticator *auth.Authenticator
	CookieSecure  bool
	// Ready reports whether dependencies (the database) are reachable.
	Ready func(ctx context.Context) error
}

const loginPath = "/api/v1/admin/login"

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("ready_check_failed", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1")

	v1.GET("/store", d.Store.Settings)
	v1.GET("/store/contact", d.Store.Contact)
	v1.GET("/categories", d.Store.Categories)
	v1.GET("/products", d.Store.Products)
	v1.GET("/products/:id", d.Store.Product)
	v1.GET("/search", d.Store.Search)
	v1.GET("/special-items", d.Store.SpecialItems)
	v1.GET("/delivery-slots", d.Store.TimeSlots)

	shop := v1.Group("", d.Sessions.Middleware(d.CookieSecure))

	cart := shop.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:id", d.Cart.SetQuantity)
	cart.DELETE("/items/:id", d.Cart.RemoveItem)

	co := shop.Group("/checkout")
	co.GET("", d.Checkout.State)
	co.GET("/postal/:cep", d.Checkout.PostalLookup)
	co.POST("/identification", d.Checkout.Identification)
	co.POST("/delivery", d.Checkout.Delivery)
	co.POST("/personalization", d.Checkout.Personalization)
	co.POST("/payment", d.Checkout.Payment)

	shop.GET("/orders/:number", d.Checkout.Order)

	admin := v1.Group("/admin", csrf.Middleware(csrf.Config{
		Secure:    d.CookieSecure,
		SkipPaths: []string{loginPath},
	}))
	admin.POST("/login", d.Auth.Login)

	authed := admin.Group("", d.Authenticator.RequireAdmin)
	authed.POST("/logout", d.Auth.Logout)
	authed.GET("/me", d.Auth.Me)

	viewer := authed.Group("", auth.RequireRole(roles.Viewer))
	editor := authed.Group("", auth.RequireRole(roles.Editor), echomw.BodyLimit("10M"))
	master := authed.Group("", auth.RequireRole(roles.Master), echomw.BodyLimit("10M"))

	viewer.GET("/dashboard", d.Dashboard.Metrics)

	viewer.GET("/products", d.Products.List)
	viewer.GET("/products/:id", d.Products.Get)
	editor.POST("/products", d.Products.Create)
	editor.PATCH("/products/:id", d.Products.Patch)
	editor.DELETE("/products/:id", d.Products.Delete)
	editor.POST("/products/:id/images", d.Products.UploadImage)
	editor.DELETE("/products/:id/images/:imageID", d.Products.DeleteImage)

	viewer.GET("/categories", d.Category.List)
	viewer.GET("/categories/:id", d.Category.Get)
	editor.POST("/categories", d.Category.Create)
	editor.PATCH("/categories/:id", d.Category.Patch)
	editor.DELETE("/categories/:id", d.Category.Delete)
	editor.POST("/categories/:id/image", d.Category.UploadImage)

	viewer.GET("/special-items", d.Special.List)
	viewer.GET("/special-items/:id", d.Special.Get)
	editor.POST("/special-items", d.Special.Create)
	editor.PATCH("/special-items/:id", d.Special.Patch)
	editor.DELETE("/special-items/:id", d.Special.Delete)
	editor.POST("/special-items/:id/image", d.Special.UploadImage)

	viewer.GET("/delivery-slots", d.TimeSlots.List)
	editor.POST("/delivery-slots", d.TimeSlots.Create)
	editor.PATCH("/delivery-slots/:id", d.TimeSlots.Patch)
	editor.DELETE("/delivery-slots/:id", d.TimeSlots.Delete)

	viewer.GET("/orders", d.Orders.List)
	viewer.GET("/orders/:id", d.Orders.Get)
	editor.PATCH("/orders/:id/status", d.Orders.UpdateStatus)
	editor.DELETE("/orders/:id", d.Orders.Delete)

	viewer.GET("/settings", d.Settings.Get)
	master.PATCH("/settings", d.Settings.Update)
	master.POST("/settings/logo", d.Settings.UploadLogo)

	master.GET("/users", d.Users.List)
	master.POST("/users", d.Users.Create)
	master.PATCH("/users/:id", d.Users.Patch)
	master.DELETE("/users/:id", d.Users.Delete)
}
