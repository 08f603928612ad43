package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/flower_shop/internal/cart"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/postal"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/session"
	"github.com/Skotchmaster/flower_shop/internal/testutil"
)

type fakePostal struct {
	known map[string]postal.Address
	err   error
}

func (f *fakePostal) Lookup(_ context.Context, cep string) (*postal.Address, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.known[cep]
	if !ok {
		return nil, postal.ErrNotFound
	}
	return &a, nil
}

type recordedEvent struct {
	Topic, Key string
	Event      any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{topic, key, event})
	return nil
}

type env struct {
	svc    *Service
	repo   *repo.GormRepo
	sm     *session.Manager
	sid    uuid.UUID
	events *fakeEvents
	slot   models.DeliveryTimeSlot
	rosas  models.Product
	cartao models.SpecialItem
	now    time.Time
}

func newEnv(t *testing.T) *env {
	gdb := testutil.NewDB(t)
	r := &repo.GormRepo{DB: gdb}
	sm := &session.Manager{Repo: r, Secret: []byte("s"), TTL: time.Hour}
	sid, _, _, err := sm.Issue(context.Background())
	require.NoError(t, err)

	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	ev := &fakeEvents{}
	e := &env{
		repo:   r,
		sm:     sm,
		sid:    sid,
		events: ev,
		now:    now,
		slot:   testutil.TimeSlot(t, gdb, "Manhã", "08:00", "12:00", true),
		rosas:  testutil.Product(t, gdb, "Buquê de Rosas", "89.90", 10),
		cartao: testutil.SpecialItem(t, gdb, "Cartão", "5.00"),
	}
	e.svc = &Service{
		Repo:   r,
		Values: sm,
		Postal: &fakePostal{known: map[string]postal.Address{
			"01001000": {PostalCode: "01001000", Street: "Praça da Sé", Neighborhood: "Sé", City: "São Paulo", State: "SP"},
		}},
		Events:           ev,
		MessageMaxLength: 200,
		ChatBaseURL:      "https://wa.me/",
		Now:              func() time.Time { return now },
	}
	return e
}

func (e *env) fillCart(t *testing.T, items ...cart.Item) {
	store := &cart.Store{Values: e.sm}
	require.NoError(t, store.Save(context.Background(), e.sid, cart.New(items...)))
}

func (e *env) rosasItem(q int) cart.Item {
	return cart.Item{ID: e.rosas.ID.String(), Title: e.rosas.Title, Price: e.rosas.Price, Quantity: q}
}

func (e *env) cartaoItem(q int) cart.Item {
	return cart.Item{ID: cart.SpecialID(e.cartao.ID), Title: e.cartao.Title, Price: e.cartao.Price, Quantity: q}
}

func (e *env) delivery() Delivery {
	return Delivery{
		RecipientName: "Joana",
		PostalCode:    "01001-000",
		Street:        "Praça da Sé",
		Number:        "100",
		Neighborhood:  "Sé",
		City:          "São Paulo",
		State:         "sp",
		DeliveryDate:  "2026-10-20",
		TimeSlotID:    e.slot.ID.String(),
	}
}

func countOrders(t *testing.T, r *repo.GormRepo) int64 {
	var n int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestIdentify_EmptyCartRejected(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Identify(context.Background(), e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, int64(0), countOrders(t, e.repo))

	_, found, err := e.sm.Get(context.Background(), e.sid, session.KeyOrderID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIdentify_Validation(t *testing.T) {
	e := newEnv(t)
	e.fillCart(t, e.rosasItem(1))
	ctx := context.Background()

	for _, in := range []Identification{
		{Name: "", Phone: "(11) 91234-5678"},
		{Name: "Maria", Phone: "11912345678"},
		{Name: "Maria", Phone: "(11) 91234-5678", Email: "nope"},
	} {
		_, err := e.svc.Identify(ctx, e.sid, in)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Equal(t, int64(0), countOrders(t, e.repo))
}

func TestIdentify_CreatesThenUpdates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fillCart(t, e.rosasItem(2), e.cartaoItem(1))

	o, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "FL-"))
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.True(t, decimal.RequireFromString("184.80").Equal(o.TotalPrice))

	got, err := e.repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	var special int
	for _, it := range got.Items {
		if it.ProductID == nil {
			special++
			assert.Equal(t, "Cartão", it.ProductTitle)
		}
	}
	assert.Equal(t, 1, special)

	again, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria S.", Phone: "(11) 91234-5678", Email: "maria@example.com"})
	require.NoError(t, err)
	assert.Equal(t, o.ID, again.ID)
	assert.Equal(t, o.OrderNumber, again.OrderNumber)
	assert.Equal(t, int64(1), countOrders(t, e.repo))

	st, err := e.svc.State(ctx, e.sid)
	require.NoError(t, err)
	assert.Equal(t, StepDelivery, st.Next)
	require.NotNil(t, st.Identification)
	assert.Equal(t, "maria@example.com", st.Identification.Email)
}

func TestLaterSteps_RequireOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Deliver(ctx, e.sid, e.delivery())
	assert.ErrorIs(t, err, ErrNoOrder)
	_, err = e.svc.Personalize(ctx, e.sid, Personalization{Message: "oi"})
	assert.ErrorIs(t, err, ErrNoOrder)
	_, err = e.svc.Pay(ctx, e.sid)
	assert.ErrorIs(t, err, ErrNoOrder)

	st, err := e.svc.State(ctx, e.sid)
	require.NoError(t, err)
	assert.Equal(t, StepIdentification, st.Next)
}

func TestDeliver_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fillCart(t, e.rosasItem(1))
	_, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)

	inactive := testutil.TimeSlot(t, e.repo.DB, "Noite", "18:00", "21:00", false)

	cases := map[string]func(d *Delivery){
		"short postal code": func(d *Delivery) { d.PostalCode = "0100100" },
		"missing street":    func(d *Delivery) { d.Street = " " },
		"missing number":    func(d *Delivery) { d.Number = "" },
		"bad state":         func(d *Delivery) { d.State = "São Paulo" },
		"past date":         func(d *Delivery) { d.DeliveryDate = "2026-10-17" },
		"bad date":          func(d *Delivery) { d.DeliveryDate = "20/10/2026" },
		"no slot":           func(d *Delivery) { d.TimeSlotID = "" },
		"unknown slot":      func(d *Delivery) { d.TimeSlotID = uuid.NewString() },
		"inactive slot":     func(d *Delivery) { d.TimeSlotID = inactive.ID.String() },
		"gift without phone": func(d *Delivery) {
			d.IsGift = true
			d.PresentedName = "Ana"
		},
		"gift bad phone": func(d *Delivery) {
			d.IsGift = true
			d.PresentedName = "Ana"
			d.PresentedPhone = "11988887777"
		},
		"recipient bad phone": func(d *Delivery) { d.RecipientPhone = "(11)8888-7777" },
	}
	for name, mutate := range cases {
		d := e.delivery()
		mutate(&d)
		_, err := e.svc.Deliver(ctx, e.sid, d)
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	d := e.delivery()
	d.DeliveryDate = "2026-10-18"
	o, err := e.svc.Deliver(ctx, e.sid, d)
	require.NoError(t, err)
	assert.Equal(t, "01001000", o.PostalCode)
	assert.Equal(t, "SP", o.State)
	require.NotNil(t, o.DeliveryTimeSlot)
	assert.Equal(t, "Manhã", o.DeliveryTimeSlot.Name)
}

func TestLookupAddress(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, err := e.svc.LookupAddress(ctx, "01001-000")
	require.NoError(t, err)
	assert.Equal(t, "Praça da Sé", a.Street)
	assert.Equal(t, "SP", a.State)

	_, err = e.svc.LookupAddress(ctx, "99999999")
	assert.ErrorIs(t, err, postal.ErrNotFound)

	_, err = e.svc.LookupAddress(ctx, "123")
	assert.ErrorIs(t, err, ErrValidation)

	e.svc.Postal = &fakePostal{err: postal.ErrUnavailable}
	_, err = e.svc.LookupAddress(ctx, "01001000")
	assert.ErrorIs(t, err, postal.ErrUnavailable)
}

func TestPersonalize_LengthBound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fillCart(t, e.rosasItem(1))
	_, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)

	_, err = e.svc.Personalize(ctx, e.sid, Personalization{Message: "oi"})
	assert.ErrorIs(t, err, ErrNoOrder, "delivery not done yet")

	_, err = e.svc.Deliver(ctx, e.sid, e.delivery())
	require.NoError(t, err)

	_, err = e.svc.Personalize(ctx, e.sid, Personalization{Message: strings.Repeat("a", 201)})
	assert.ErrorIs(t, err, ErrValidation)

	o, err := e.svc.Personalize(ctx, e.sid, Personalization{Message: strings.Repeat("ã", 200)})
	require.NoError(t, err)
	assert.Equal(t, 200, MessageLen(o.PersonalizationText))

	st, err := e.svc.State(ctx, e.sid)
	require.NoError(t, err)
	assert.True(t, st.Step3Complete)
	assert.Equal(t, StepPayment, st.Next)
}

func TestPay_IncompleteOrderRedirects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fillCart(t, e.rosasItem(1))
	_, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)

	_, err = e.svc.Pay(ctx, e.sid)
	assert.ErrorIs(t, err, ErrNoOrder)
	assert.Empty(t, e.events.events)
}

func TestPay_ResyncsCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fillCart(t, e.rosasItem(1))
	o, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)
	_, err = e.svc.Deliver(ctx, e.sid, e.delivery())
	require.NoError(t, err)

	e.fillCart(t, e.rosasItem(3), e.cartaoItem(2))

	conf, err := e.svc.Pay(ctx, e.sid)
	require.NoError(t, err)
	assert.Equal(t, o.ID, conf.Order.ID)

	got, err := e.repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	qty := map[string]int{}
	for _, it := range got.Items {
		qty[it.ProductTitle] = it.Quantity
	}
	assert.Equal(t, map[string]int{"Buquê de Rosas": 3, "Cartão": 2}, qty)
	assert.True(t, decimal.RequireFromString("279.70").Equal(got.TotalPrice))
	assert.NotNil(t, got.CompletedAt)
}

func TestCheckout_EndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	settings, err := e.repo.GetSettings(ctx)
	require.NoError(t, err)
	settings.ChatPhone = "(11) 99999-0000"
	require.NoError(t, e.repo.SaveSettings(ctx, settings))

	e.fillCart(t, e.rosasItem(1), e.cartaoItem(1))

	o, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)

	addr, err := e.svc.LookupAddress(ctx, "01001000")
	require.NoError(t, err)
	d := Delivery{
		RecipientName: "Maria Silva",
		PostalCode:    addr.PostalCode,
		Street:        addr.Street,
		Number:        "100",
		Neighborhood:  addr.Neighborhood,
		City:          addr.City,
		State:         addr.State,
		DeliveryDate:  "2026-10-25",
		TimeSlotID:    e.slot.ID.String(),
	}
	_, err = e.svc.Deliver(ctx, e.sid, d)
	require.NoError(t, err)

	_, err = e.svc.Personalize(ctx, e.sid, Personalization{Message: "Com carinho"})
	require.NoError(t, err)

	conf, err := e.svc.Pay(ctx, e.sid)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, conf.Order.OrderNumber)
	assert.Contains(t, conf.Summary, "Nome: Maria Silva")
	assert.Contains(t, conf.Summary, "*Total: R$ 94,90*")
	assert.True(t, strings.HasPrefix(conf.ChatURL, "https://wa.me/11999990000?text="))

	for _, k := range append([]string{session.KeyCart}, session.CheckoutKeys...) {
		_, found, err := e.sm.Get(ctx, e.sid, k)
		require.NoError(t, err)
		assert.False(t, found, k)
	}

	require.Len(t, e.events.events, 1)
	assert.Equal(t, "order_events", e.events.events[0].Topic)
	assert.Equal(t, o.OrderNumber, e.events.events[0].Key)

	st, err := e.svc.State(ctx, e.sid)
	require.NoError(t, err)
	assert.Empty(t, st.Items)
	assert.Equal(t, StepIdentification, st.Next)

	_, err = e.svc.Pay(ctx, e.sid)
	assert.True(t, errors.Is(err, ErrNoOrder))
}

func TestIdentify_AfterCompletionStartsNewOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fillCart(t, e.rosasItem(1))
	first, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)

	require.NoError(t, e.repo.UpdateOrderFields(ctx, first.ID, map[string]any{"status": models.OrderStatusInProduction}))

	second, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestPlaced_OnlyForPayingSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fillCart(t, e.rosasItem(1))
	o, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)
	_, err = e.svc.Deliver(ctx, e.sid, e.delivery())
	require.NoError(t, err)

	_, err = e.svc.Placed(ctx, e.sid, o.OrderNumber)
	assert.ErrorIs(t, err, ErrOrderNotFound, "not paid yet")

	_, err = e.svc.Pay(ctx, e.sid)
	require.NoError(t, err)

	conf, err := e.svc.Placed(ctx, e.sid, strings.ToLower(o.OrderNumber))
	require.NoError(t, err)
	assert.Equal(t, o.ID, conf.Order.ID)
	assert.Contains(t, conf.Summary, o.OrderNumber)

	other, _, _, err := e.sm.Issue(ctx)
	require.NoError(t, err)
	_, err = e.svc.Placed(ctx, other, o.OrderNumber)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = e.svc.Placed(ctx, e.sid, "FL-000000")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeliver_TodayInShopZone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fillCart(t, e.rosasItem(1))
	_, err := e.svc.Identify(ctx, e.sid, Identification{Name: "Maria Silva", Phone: "(11) 91234-5678"})
	require.NoError(t, err)

	// 22:00 on the 18th in the shop is already the 19th in UTC.
	e.svc.Location = time.FixedZone("BRT", -3*60*60)
	e.svc.Now = func() time.Time { return time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC) }

	d := e.delivery()
	d.DeliveryDate = "2026-10-18"
	_, err = e.svc.Deliver(ctx, e.sid, d)
	require.NoError(t, err)

	d.DeliveryDate = "2026-10-17"
	_, err = e.svc.Deliver(ctx, e.sid, d)
	assert.ErrorIs(t, err, ErrValidation)
}
