package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/flower_shop/internal/cart"
	"github.com/Skotchmaster/flower_shop/internal/checkout"
	"github.com/Skotchmaster/flower_shop/internal/middleware/auth"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/mykafka"
	"github.com/Skotchmaster/flower_shop/internal/postal"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/roles"
	"github.com/Skotchmaster/flower_shop/internal/service"
	"github.com/Skotchmaster/flower_shop/internal/session"
	"github.com/Skotchmaster/flower_shop/internal/storage"
	"github.com/Skotchmaster/flower_shop/internal/testutil"
	"github.com/Skotchmaster/flower_shop/internal/tokens"
	"github.com/Skotchmaster/flower_shop/internal/transport"
)

var jwtSecret = []byte("jwt-test")

type testEnv struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestEnv(t *testing.T) *testEnv {
	gdb := testutil.NewDB(t)
	r := &repo.GormRepo{DB: gdb}

	viacep := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(req.URL.Path, "/01310100/"):
			_, _ = w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
		case strings.HasPrefix(req.URL.Path, "/99999999/"):
			_, _ = w.Write([]byte(`{"erro": true}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	t.Cleanup(viacep.Close)

	sm := &session.Manager{Repo: r, Secret: []byte("session-test"), TTL: time.Hour}
	up := &storage.DiskStore{Dir: t.TempDir(), URLPrefix: "/uploads"}
	events := mykafka.Nop{}

	e := echo.New()
	Register(e, &Deps{
		Store: &StoreHTTP{
			Catalog: &service.CatalogService{Repo: r, ChatBaseURL: "https://wa.me/"},
		},
		Cart: &CartHTTP{Svc: &service.CartService{Repo: r, Store: &cart.Store{Values: sm}, Events: events}},
		Checkout: &CheckoutHTTP{Svc: &checkout.Service{
			Repo:             r,
			Values:           sm,
			Postal:           postal.NewClient(viacep.URL),
			Events:           events,
			MessageMaxLength: 200,
			ChatBaseURL:      "https://wa.me/",
		}},
		Auth:      &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: jwtSecret, AccessTTL: time.Hour}},
		Products:  &ProductHTTP{Svc: &service.ProductService{Repo: r, Events: events, Storage: up}},
		Category:  &CategoryHTTP{Svc: &service.CategoryService{Repo: r, Storage: up}},
		Special:   &SpecialItemHTTP{Svc: &service.SpecialItemService{Repo: r, Storage: up}},
		TimeSlots: &TimeSlotHTTP{Svc: &service.TimeSlotService{Repo: r}},
		Orders:    &OrderHTTP{Svc: &service.OrderService{Repo: r, Events: events}},
		Users:     &UserHTTP{Svc: &service.UserService{Repo: r}},
		Settings:  &SettingsHTTP{Svc: &service.SettingsService{Repo: r, Storage: up}},
		Dashboard: &DashboardHTTP{Svc: &service.DashboardService{Repo: r}},

		Sessions:      sm,
		Authenticator: &auth.Authenticator{Secret: jwtSecret, Users: r},
	})
	return &testEnv{e: e, repo: r}
}

type call struct {
	method, path string
	body         any
	session      string
	bearer       string
}

func (env *testEnv) do(t *testing.T, c call) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.session != "" {
		req.Header.Set(tokens.SessionHeader, c.session)
	}
	if c.bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.bearer)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (env *testEnv) admin(t *testing.T, role roles.Role) string {
	name := "admin-" + string(role)
	_, err := (&service.UserService{Repo: env.repo}).Create(context.Background(), transport.CreateUserRequest{
		Username: name, Password: "password123", Role: role,
	})
	require.NoError(t, err)

	rec := env.do(t, call{method: http.MethodPost, path: "/api/v1/admin/login", body: transport.LoginRequest{Username: name, Password: "password123"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["access_token"].(string)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(t, call{method: http.MethodGet, path: "/health/live"}).Code)
	assert.Equal(t, http.StatusOK, env.do(t, call{method: http.MethodGet, path: "/health/ready"}).Code)
}

func TestCheckoutOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	gdb := env.repo.DB
	rosas := testutil.Product(t, gdb, "Buquê de Rosas", "89.90", 10)
	slot := testutil.TimeSlot(t, gdb, "Tarde", "13:00", "18:00", true)

	rec := env.do(t, call{method: http.MethodGet, path: "/api/v1/cart"})
	require.Equal(t, http.StatusOK, rec.Code)
	sess := rec.Header().Get(tokens.SessionHeader)
	require.NotEmpty(t, sess)

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/delivery", session: sess, body: map[string]any{}})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "identification", decode(t, rec)["redirect"])

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/identification", session: sess,
		body: checkout.Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"}})
	require.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/cart/items", session: sess,
		body: transport.AddCartItemRequest{ID: rosas.ID.String(), Quantity: 2}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, "Buquê de Rosas", body["added"].(map[string]any)["title"])

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/identification", session: sess,
		body: checkout.Identification{Name: "Maria Silva", Phone: "(11) 91234-5678", Email: "maria@example.com"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	number := decode(t, rec)["order"].(map[string]any)["order_number"].(string)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/checkout/postal/01310-100", session: sess})
	require.Equal(t, http.StatusOK, rec.Code)
	addr := decode(t, rec)["address"].(map[string]any)
	assert.Equal(t, "Avenida Paulista", addr["street"])

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/delivery", session: sess, body: checkout.Delivery{
		RecipientName: "Joana",
		PostalCode:    "01310-100",
		Street:        "Avenida Paulista",
		Number:        "1000",
		Neighborhood:  "Bela Vista",
		City:          "São Paulo",
		State:         "SP",
		DeliveryDate:  time.Now().UTC().AddDate(0, 0, 2).Format(time.DateOnly),
		TimeSlotID:    slot.ID.String(),
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/personalization", session: sess,
		body: checkout.Personalization{Message: strings.Repeat("a", 201)}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/personalization", session: sess,
		body: checkout.Personalization{Message: "Feliz aniversário!"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/payment", session: sess})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	conf := decode(t, rec)
	assert.Contains(t, conf["summary"], number)
	assert.Contains(t, conf["chat_url"], "https://wa.me/")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/cart", session: sess})
	assert.EqualValues(t, 0, decode(t, rec)["count"])

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/orders/" + number, session: sess})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	placed := decode(t, rec)
	assert.Equal(t, "179.8", placed["order"].(map[string]any)["total_price"])
	assert.Contains(t, placed["summary"], number)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/orders/" + number})
	assert.Equal(t, http.StatusNotFound, rec.Code, "no session")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/cart"})
	other := rec.Header().Get(tokens.SessionHeader)
	require.NotEmpty(t, other)
	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/orders/" + number, session: other})
	assert.Equal(t, http.StatusNotFound, rec.Code, "other session")
	assert.NotContains(t, rec.Body.String(), "Maria Silva")
}

func TestPostalLookupFailuresAreWarnings(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, call{method: http.MethodGet, path: "/api/v1/checkout/postal/99999-999"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["found"])
	assert.NotEmpty(t, body["warning"])

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/checkout/postal/12345678"})
	require.Equal(t, http.StatusOK, rec.Code, "upstream failure")
	assert.NotEmpty(t, decode(t, rec)["warning"])

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/checkout/postal/123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoles(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.admin(t, roles.Viewer)
	editor := env.admin(t, roles.Editor)

	rec := env.do(t, call{method: http.MethodGet, path: "/api/v1/admin/products"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	product := map[string]any{"title": "Orquídea", "price": "120.00", "stock": 3}
	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/admin/products", bearer: viewer, body: product})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/admin/products", bearer: editor, body: product})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(string)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/admin/products?q=orq", bearer: viewer})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["meta"].(map[string]any)["total"])

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/admin/users", bearer: editor})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/admin/dashboard?days=7", bearer: viewer})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total_products"])

	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/products/" + id})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/products/not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, call{method: http.MethodDelete, path: "/api/v1/admin/products/" + id, bearer: editor})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, call{method: http.MethodGet, path: "/api/v1/products/" + id})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCookieRequiresCSRF(t *testing.T) {
	env := newTestEnv(t)
	tok := env.admin(t, roles.Master)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/settings", strings.NewReader(`{"store_name":"Flora"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tok})
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/admin/settings", strings.NewReader(`{"store_name":"Flora"}`))
	req.Host = "shop.test"
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Origin", "http://shop.test")
	req.Header.Set("X-CSRF-Token", "tok")
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tok})
	rec = httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var st models.StoreSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "Flora", st.StoreName)
}

func TestAdminUploadProductImage(t *testing.T) {
	env := newTestEnv(t)
	editor := env.admin(t, roles.Editor)
	p := testutil.Product(t, env.repo.DB, "Girassol", "40", 1)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 20, 20))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "girassol.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/"+p.ID.String()+"/images", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+editor)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.True(t, strings.HasPrefix(out["image_url"].(string), "/uploads/products/"))
	assert.Len(t, out["images"], 1)

	rec = env.do(t, call{method: http.MethodPost, path: "/api/v1/admin/products/" + p.ID.String() + "/images", bearer: editor})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
