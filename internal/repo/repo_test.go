package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/roles"
	"github.com/Skotchmaster/flower_shop/internal/testutil"
)

func newRepo(t *testing.T) *GormRepo {
	return &GormRepo{DB: testutil.NewDB(t)}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%rosa%", likePattern("  Rosa "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}

func TestSessionValues(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	s := models.Session{ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.CreateSession(ctx, &s))

	_, found, err := r.GetValue(ctx, s.ID, "cart")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.SetValue(ctx, s.ID, "cart", "[]"))
	require.NoError(t, r.SetValue(ctx, s.ID, "cart", `[{"id":"x"}]`))
	v, found, err := r.GetValue(ctx, s.ID, "cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"x"}]`, v)

	require.NoError(t, r.DeleteValues(ctx, s.ID, "cart", "missing"))
	_, found, err = r.GetValue(ctx, s.ID, "cart")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteExpiredSessions(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	old := models.Session{ExpiresAt: now.Add(-time.Minute)}
	live := models.Session{ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, r.CreateSession(ctx, &old))
	require.NoError(t, r.CreateSession(ctx, &live))
	require.NoError(t, r.SetValue(ctx, old.ID, "cart", "[]"))
	require.NoError(t, r.SetValue(ctx, live.ID, "cart", "[]"))

	n, err := r.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.GetSession(ctx, old.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	_, found, err := r.GetValue(ctx, old.ID, "cart")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = r.GetValue(ctx, live.ID, "cart")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestListProducts_Filters(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	cat := models.Category{Name: "Buquês", Slug: "buques", Active: true}
	require.NoError(t, r.CreateCategory(ctx, &cat))

	rosas := testutil.Product(t, r.DB, "Buquê de Rosas", "89.90", 5)
	rosas.CategoryID = &cat.ID
	rosas.Featured = true
	require.NoError(t, r.SaveProduct(ctx, &rosas))
	testutil.Product(t, r.DB, "Orquídea", "120.00", 2)
	hidden := testutil.Product(t, r.DB, "Rosa Azul", "50.00", 1)
	require.NoError(t, r.DB.Model(&hidden).Update("active", false).Error)

	total, items, err := r.ListProducts(ctx, ProductFilter{Query: "rosa"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	total, _, err = r.ListProducts(ctx, ProductFilter{Query: "rosa", ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	total, items, err = r.ListProducts(ctx, ProductFilter{CategoryID: &cat.ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.NotNil(t, items[0].Category)
	assert.Equal(t, "buques", items[0].Category.Slug)

	total, _, err = r.ListProducts(ctx, ProductFilter{Featured: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	total, items, err = r.ListProducts(ctx, ProductFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 1)

	n, err := r.CountProductsInCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProductImages_Cover(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := testutil.Product(t, r.DB, "Lírios", "70.00", 3)

	first := models.ProductImage{ProductID: p.ID, URL: "https://cdn/1.jpg"}
	second := models.ProductImage{ProductID: p.ID, URL: "https://cdn/2.jpg"}
	require.NoError(t, r.AddProductImage(ctx, &first))
	require.NoError(t, r.AddProductImage(ctx, &second))
	assert.Equal(t, 1, second.Position)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/1.jpg", got.ImageURL)
	require.Len(t, got.Images, 2)

	require.NoError(t, r.DeleteProductImage(ctx, p.ID, first.ID))
	got, err = r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/2.jpg", got.ImageURL)

	require.NoError(t, r.DeleteProductImage(ctx, p.ID, second.ID))
	got, err = r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ImageURL)

	err = r.AddProductImage(ctx, &models.ProductImage{ProductID: uuid.New(), URL: "x"})
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteProduct_NotFound(t *testing.T) {
	r := newRepo(t)
	err := r.DeleteProduct(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTimeSlots_ActiveOrdered(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	testutil.TimeSlot(t, r.DB, "Tarde", "13:00", "18:00", true)
	testutil.TimeSlot(t, r.DB, "Manhã", "08:00", "12:00", true)
	testutil.TimeSlot(t, r.DB, "Noite", "18:00", "21:00", false)

	slots, err := r.ListTimeSlots(ctx, true)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "Manhã", slots[0].Name)

	all, err := r.ListTimeSlots(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSettings_Singleton(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	s, err := r.GetSettings(ctx)
	require.NoError(t, err)
	s.StoreName = "Flora"
	require.NoError(t, r.SaveSettings(ctx, s))

	again, err := r.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Flora", again.StoreName)

	var n int64
	require.NoError(t, r.DB.Model(&models.StoreSettings{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestUsers(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	u := models.AdminUser{Username: "ana", PasswordHash: "x", Role: roles.Master}
	require.NoError(t, r.CreateUserIfNotExists(ctx, &u))
	dup := models.AdminUser{Username: "ana", PasswordHash: "y", Role: roles.Viewer}
	assert.ErrorIs(t, r.CreateUserIfNotExists(ctx, &dup), ErrUserAlreadyExist)

	n, err := r.CountUsersWithRole(ctx, roles.Master)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := r.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func orderItems() []models.OrderItem {
	return []models.OrderItem{
		{ProductTitle: "Buquê", UnitPrice: decimal.RequireFromString("89.90"), Quantity: 2},
		{ProductTitle: "Cartão", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1},
	}
}

func TestUpsertOrderWithItems(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	o := models.Order{OrderNumber: "FL-1", CustomerName: "Maria Silva", Status: models.OrderStatusPending}
	require.NoError(t, r.UpsertOrderWithItems(ctx, &o, orderItems()))
	require.NotEqual(t, uuid.Nil, o.ID)
	assert.True(t, decimal.RequireFromString("184.80").Equal(o.TotalPrice))

	o.CustomerName = "Maria S."
	require.NoError(t, r.UpsertOrderWithItems(ctx, &o, orderItems()[:1]))

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria S.", got.CustomerName)
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.RequireFromString("179.80").Equal(got.TotalPrice))

	exists, err := r.OrderNumberExists(ctx, "FL-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCompleteOrder(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	o := models.Order{OrderNumber: "FL-2", Status: models.OrderStatusPending}
	require.NoError(t, r.UpsertOrderWithItems(ctx, &o, orderItems()))

	bad := []models.OrderItem{{ProductTitle: "Zero", UnitPrice: decimal.NewFromInt(1), Quantity: 0}}
	_, err := r.CompleteOrder(ctx, o.ID, bad, at)
	require.Error(t, err)

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.True(t, decimal.RequireFromString("184.80").Equal(got.TotalPrice))
	assert.Nil(t, got.CompletedAt, "failed item swap must not complete the order")

	total, err := r.CompleteOrder(ctx, o.ID, orderItems()[:1], at)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("179.80").Equal(total))

	got, err = r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, at.Equal(got.CompletedAt.UTC()))

	_, err = r.CompleteOrder(ctx, uuid.New(), orderItems(), at)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestListOrders_StatusAndSearch(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	a := models.Order{OrderNumber: "FL-100", CustomerName: "Maria Silva", CustomerPhone: "(11) 91234-5678", Status: models.OrderStatusPending}
	b := models.Order{OrderNumber: "FL-200", CustomerName: "João", Status: models.OrderStatusShipped}
	require.NoError(t, r.UpsertOrderWithItems(ctx, &a, nil))
	require.NoError(t, r.UpsertOrderWithItems(ctx, &b, nil))

	total, _, err := r.ListOrders(ctx, OrderFilter{Status: models.OrderStatusShipped})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	total, orders, err := r.ListOrders(ctx, OrderFilter{Query: "maria"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "FL-100", orders[0].OrderNumber)

	total, _, err = r.ListOrders(ctx, OrderFilter{Query: "91234"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, r.UpdateOrderFields(ctx, a.ID, map[string]any{"status": models.OrderStatusInProduction}))
	assert.True(t, errors.Is(r.UpdateOrderFields(ctx, uuid.New(), map[string]any{"status": "x"}), gorm.ErrRecordNotFound))

	require.NoError(t, r.DeleteOrder(ctx, b.ID))
	_, err = r.GetOrder(ctx, b.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
