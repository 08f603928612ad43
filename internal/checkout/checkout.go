// Package checkout drives the four-step purchase: identification, delivery,
// personalization and payment. Progress is kept in the shopper session; the
// order row is the source of truth once payment is reached.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/cart"
	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/mykafka"
	"github.com/Skotchmaster/flower_shop/internal/postal"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/session"
)

var (
	ErrValidation = errors.New("validation")
	ErrEmptyCart  = errors.New("cart is empty")
	// ErrNoOrder means an earlier step has not been completed; the client restarts at identification.
	ErrNoOrder = errors.New("checkout not started")
	// ErrOrderNotFound hides orders the session did not place.
	ErrOrderNotFound = errors.New("order not found")
)

const (
	StepIdentification  = "identification"
	StepDelivery        = "delivery"
	StepPersonalization = "personalization"
	StepPayment         = "payment"
)

type AddressLookup interface {
	Lookup(ctx context.Context, cep string) (*postal.Address, error)
}

type Identification struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Delivery struct {
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	IsGift         bool   `json:"is_gift"`
	PresentedName  string `json:"presented_name"`
	PresentedPhone string `json:"presented_phone"`
	PostalCode     string `json:"postal_code"`
	Street         string `json:"street"`
	Number         string `json:"number"`
	Complement     string `json:"complement"`
	Neighborhood   string `json:"neighborhood"`
	City           string `json:"city"`
	State          string `json:"state"`
	DeliveryDate   string `json:"delivery_date"`
	TimeSlotID     string `json:"time_slot_id"`
}

type Personalization struct {
	Message string `json:"message"`
}

type State struct {
	OrderID         *uuid.UUID       `json:"order_id,omitempty"`
	OrderNumber     string           `json:"order_number,omitempty"`
	Identification  *Identification  `json:"identification,omitempty"`
	Delivery        *Delivery        `json:"delivery,omitempty"`
	Personalization *Personalization `json:"personalization,omitempty"`
	Step3Complete   bool             `json:"step3_complete"`
	Items           []cart.Item      `json:"items"`
	Total           decimal.Decimal  `json:"total"`
	Next            string           `json:"next"`
	MessageMax      int              `json:"message_max_length"`
}

type Confirmation struct {
	Order   *models.Order `json:"order"`
	Summary string        `json:"summary"`
	ChatURL string        `json:"chat_url"`
}

type Service struct {
	Repo             *repo.GormRepo
	Values           cart.Values
	Postal           AddressLookup
	Events           mykafka.Publisher
	MessageMaxLength int
	ChatBaseURL      string

	// Location is the shop's time zone; delivery dates are calendar days there.
	Location *time.Location
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) today() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now := s.now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) carts() *cart.Store {
	return &cart.Store{Values: s.Values}
}

// State reports the saved snapshots and the first step still to be done.
func (s *Service) State(ctx context.Context, sid uuid.UUID) (*State, error) {
	c, err := s.carts().Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	st := &State{Items: c.Items(), Total: c.Total(), MessageMax: s.MessageMaxLength}

	if id, ok, err := s.orderID(ctx, sid); err != nil {
		return nil, err
	} else if ok {
		o, err := s.Repo.GetOrder(ctx, id)
		switch {
		case err == nil:
			st.OrderID = &o.ID
			st.OrderNumber = o.OrderNumber
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	st.Identification = &Identification{}
	if ok, err := s.snapshot(ctx, sid, session.KeyIdentification, st.Identification); err != nil {
		return nil, err
	} else if !ok {
		st.Identification = nil
	}
	st.Delivery = &Delivery{}
	if ok, err := s.snapshot(ctx, sid, session.KeyDelivery, st.Delivery); err != nil {
		return nil, err
	} else if !ok {
		st.Delivery = nil
	}
	st.Personalization = &Personalization{}
	if ok, err := s.snapshot(ctx, sid, session.KeyPersonalization, st.Personalization); err != nil {
		return nil, err
	} else if !ok {
		st.Personalization = nil
	}
	_, st.Step3Complete, err = s.Values.Get(ctx, sid, session.KeyStep3Complete)
	if err != nil {
		return nil, err
	}

	switch {
	case st.OrderID == nil || st.Identification == nil:
		st.Next = StepIdentification
	case st.Delivery == nil:
		st.Next = StepDelivery
	case !st.Step3Complete:
		st.Next = StepPersonalization
	default:
		st.Next = StepPayment
	}
	return st, nil
}

// Identify creates or updates the order with the buyer's data and copies the
// cart into its items in one transaction.
func (s *Service) Identify(ctx context.Context, sid uuid.UUID, in Identification) (*models.Order, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	case !ValidPhone(in.Phone):
		return nil, fmt.Errorf("%w: phone must look like (11) 91234-5678", ErrValidation)
	case in.Email != "" && !ValidEmail(in.Email):
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	c, err := s.carts().Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}
	items, err := orderItems(c)
	if err != nil {
		return nil, err
	}

	order, err := s.reusableOrder(ctx, sid)
	if err != nil {
		return nil, err
	}
	if order == nil {
		number, err := s.newOrderNumber(ctx)
		if err != nil {
			return nil, err
		}
		order = &models.Order{OrderNumber: number, Status: models.OrderStatusPending}
	}
	order.CustomerName = in.Name
	order.CustomerPhone = in.Phone
	order.CustomerEmail = in.Email

	if err := s.Repo.UpsertOrderWithItems(ctx, order, items); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	if err := s.Values.Set(ctx, sid, session.KeyOrderID, order.ID.String()); err != nil {
		return nil, err
	}
	if err := s.saveSnapshot(ctx, sid, session.KeyIdentification, in); err != nil {
		return nil, err
	}
	return order, nil
}

// LookupAddress normalizes the postal code and asks the postal service for the address.
func (s *Service) LookupAddress(ctx context.Context, raw string) (*postal.Address, error) {
	cep, ok := NormalizePostalCode(raw)
	if !ok {
		return nil, fmt.Errorf("%w: postal code must have 8 digits", ErrValidation)
	}
	return s.Postal.Lookup(ctx, cep)
}

func (s *Service) Deliver(ctx context.Context, sid uuid.UUID, in Delivery) (*models.Order, error) {
	id, ok, err := s.orderID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoOrder
	}

	in, date, slotID, err := s.validateDelivery(ctx, in)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"recipient_name":        in.RecipientName,
		"recipient_phone":       in.RecipientPhone,
		"is_gift":               in.IsGift,
		"presented_name":        in.PresentedName,
		"presented_phone":       in.PresentedPhone,
		"postal_code":           in.PostalCode,
		"street":                in.Street,
		"number":                in.Number,
		"complement":            in.Complement,
		"neighborhood":          in.Neighborhood,
		"city":                  in.City,
		"state":                 in.State,
		"delivery_date":         date,
		"delivery_time_slot_id": slotID,
	}
	if err := s.Repo.UpdateOrderFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOrder
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	if err := s.saveSnapshot(ctx, sid, session.KeyDelivery, in); err != nil {
		return nil, err
	}
	return s.Repo.GetOrder(ctx, id)
}

func (s *Service) validateDelivery(ctx context.Context, in Delivery) (Delivery, time.Time, uuid.UUID, error) {
	trim := func(p *string) { *p = strings.TrimSpace(*p) }
	for _, p := range []*string{
		&in.RecipientName, &in.RecipientPhone, &in.PresentedName, &in.PresentedPhone,
		&in.Street, &in.Number, &in.Complement, &in.Neighborhood, &in.City, &in.State,
		&in.DeliveryDate, &in.TimeSlotID,
	} {
		trim(p)
	}
	in.State = strings.ToUpper(in.State)
	if !in.IsGift {
		in.PresentedName, in.PresentedPhone = "", ""
	}

	fail := func(msg string) (Delivery, time.Time, uuid.UUID, error) {
		return in, time.Time{}, uuid.Nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	if in.RecipientName == "" {
		return fail("recipient name is required")
	}
	if in.RecipientPhone != "" && !ValidPhone(in.RecipientPhone) {
		return fail("recipient phone must look like (11) 91234-5678")
	}
	if in.IsGift {
		if in.PresentedName == "" {
			return fail("gift recipient name is required")
		}
		if !ValidPhone(in.PresentedPhone) {
			return fail("gift recipient phone must look like (11) 91234-5678")
		}
	}

	cep, ok := NormalizePostalCode(in.PostalCode)
	if !ok {
		return fail("postal code must have 8 digits")
	}
	in.PostalCode = cep
	switch {
	case in.Street == "":
		return fail("street is required")
	case in.Number == "":
		return fail("number is required")
	case in.Neighborhood == "":
		return fail("neighborhood is required")
	case in.City == "":
		return fail("city is required")
	case !ValidState(in.State):
		return fail("state must be a 2-letter code")
	}

	date, err := time.Parse(time.DateOnly, in.DeliveryDate)
	if err != nil {
		return fail("delivery date must be YYYY-MM-DD")
	}
	if date.Before(s.today()) {
		return fail("delivery date cannot be in the past")
	}

	if in.TimeSlotID == "" {
		return fail("time slot is required")
	}
	slotID, err := uuid.Parse(in.TimeSlotID)
	if err != nil {
		return fail("time slot is invalid")
	}
	slot, err := s.Repo.GetTimeSlot(ctx, slotID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !slot.Active) {
		return fail("time slot is not available")
	}
	if err != nil {
		return in, time.Time{}, uuid.Nil, err
	}
	return in, date, slotID, nil
}

func (s *Service) Personalize(ctx context.Context, sid uuid.UUID, in Personalization) (*models.Order, error) {
	id, ok, err := s.orderID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoOrder
	}
	for _, k := range []string{session.KeyIdentification, session.KeyDelivery} {
		_, found, err := s.Values.Get(ctx, sid, k)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrNoOrder
		}
	}

	in.Message = strings.TrimSpace(in.Message)
	if limit := s.MessageMaxLength; limit > 0 && MessageLen(in.Message) > limit {
		return nil, fmt.Errorf("%w: message is limited to %d characters", ErrValidation, limit)
	}

	if err := s.Repo.UpdateOrderFields(ctx, id, map[string]any{"personalization_text": in.Message}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOrder
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	if err := s.saveSnapshot(ctx, sid, session.KeyPersonalization, in); err != nil {
		return nil, err
	}
	if err := s.Values.Set(ctx, sid, session.KeyStep3Complete, "true"); err != nil {
		return nil, err
	}
	return s.Repo.GetOrder(ctx, id)
}

// Pay checks the stored order, re-syncs its items with the current cart, builds
// the chat handoff and clears the cart and checkout state.
func (s *Service) Pay(ctx context.Context, sid uuid.UUID) (*Confirmation, error) {
	l := logging.FromContext(ctx)

	id, ok, err := s.orderID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoOrder
	}
	order, err := s.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOrder
	}
	if err != nil {
		return nil, err
	}
	if missing := incomplete(order); missing != "" {
		return nil, fmt.Errorf("%w: %s missing", ErrNoOrder, missing)
	}

	c, err := s.carts().Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}
	items, err := orderItems(c)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.CompleteOrder(ctx, id, items, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}

	order, err = s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	conf, err := s.confirmation(ctx, order)
	if err != nil {
		return nil, err
	}

	if s.Events != nil {
		err := s.Events.PublishEvent(ctx, mykafka.TopicOrders, order.OrderNumber, map[string]any{
			"type":         "order_completed",
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"total":        order.TotalPrice.StringFixed(2),
			"items":        len(order.Items),
		})
		if err != nil {
			l.Error("kafka_publish_error", "topic", mykafka.TopicOrders, "order_number", order.OrderNumber, "error", err)
		}
	}

	keys := append([]string{session.KeyCart}, session.CheckoutKeys...)
	if err := s.Values.Delete(ctx, sid, keys...); err != nil {
		return nil, fmt.Errorf("clear checkout: %w", err)
	}
	if err := s.Values.Set(ctx, sid, session.KeyPlacedOrder, order.ID.String()); err != nil {
		return nil, err
	}
	return conf, nil
}

// Placed returns the confirmation of the last order this session paid for.
// Any other number, including orders placed from other sessions, is not found.
func (s *Service) Placed(ctx context.Context, sid uuid.UUID, number string) (*Confirmation, error) {
	raw, found, err := s.Values.Get(ctx, sid, session.KeyPlacedOrder)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	o, err := s.Repo.GetOrderByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.ID.String() != raw || o.CompletedAt == nil {
		return nil, ErrOrderNotFound
	}
	return s.confirmation(ctx, o)
}

func (s *Service) confirmation(ctx context.Context, o *models.Order) (*Confirmation, error) {
	settings, err := s.Repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	summary := BuildSummary(o)
	return &Confirmation{
		Order:   o,
		Summary: summary,
		ChatURL: ChatLink(s.ChatBaseURL, settings.ChatPhone, summary),
	}, nil
}

// incomplete names the first buyer or delivery field the order lacks.
func incomplete(o *models.Order) string {
	switch {
	case o.CustomerName == "" || o.CustomerPhone == "":
		return "buyer data"
	case o.RecipientName == "" || o.PostalCode == "" || o.Street == "" || o.Number == "" || o.City == "" || o.State == "":
		return "delivery address"
	case o.DeliveryDate == nil || o.DeliveryTimeSlotID == nil:
		return "delivery schedule"
	}
	return ""
}

func orderItems(c *cart.Cart) ([]models.OrderItem, error) {
	out := make([]models.OrderItem, 0, len(c.Items()))
	for _, it := range c.Items() {
		id, special, err := cart.ParseID(it.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		oi := models.OrderItem{ProductTitle: it.Title, UnitPrice: it.Price, Quantity: it.Quantity}
		if !special {
			pid := id
			oi.ProductID = &pid
		}
		out = append(out, oi)
	}
	return out, nil
}

// reusableOrder returns the session's pending order, or nil when a new one is needed.
func (s *Service) reusableOrder(ctx context.Context, sid uuid.UUID) (*models.Order, error) {
	id, ok, err := s.orderID(ctx, sid)
	if err != nil || !ok {
		return nil, err
	}
	o, err := s.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if o.Status != models.OrderStatusPending || o.CompletedAt != nil {
		return nil, nil
	}
	o.Items = nil
	o.DeliveryTimeSlot = nil
	return o, nil
}

func (s *Service) newOrderNumber(ctx context.Context) (string, error) {
	for range 5 {
		n, err := GenerateOrderNumber()
		if err != nil {
			return "", err
		}
		taken, err := s.Repo.OrderNumberExists(ctx, n)
		if err != nil {
			return "", err
		}
		if !taken {
			return n, nil
		}
	}
	return "", errors.New("could not allocate an order number")
}

func (s *Service) orderID(ctx context.Context, sid uuid.UUID) (uuid.UUID, bool, error) {
	raw, found, err := s.Values.Get(ctx, sid, session.KeyOrderID)
	if err != nil || !found {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (s *Service) snapshot(ctx context.Context, sid uuid.UUID, key string, dst any) (bool, error) {
	raw, found, err := s.Values.Get(ctx, sid, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logging.FromContext(ctx).Warn("checkout_snapshot_discarded", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Service) saveSnapshot(ctx context.Context, sid uuid.UUID, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Values.Set(ctx, sid, key, string(b))
}
