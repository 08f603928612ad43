package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/roles"
)

type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "pending"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

var statusFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProduction,
	OrderStatusShipped,
	OrderStatusDelivered,
}

func (s OrderStatus) Valid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	return s.step() >= 0
}

func (s OrderStatus) step() int {
	for i, st := range statusFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransition allows forward moves along pending -> in_production -> shipped -> delivered
// and cancelling anything not yet delivered.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if from == OrderStatusCancelled || from == OrderStatusDelivered {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return to.step() > from.step()
}

type AdminUser struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"            json:"id"`
	Username     string     `gorm:"uniqueIndex;not null"            json:"username"`
	Name         string     `                                       json:"name"`
	PasswordHash string     `gorm:"not null"                        json:"-"`
	Role         roles.Role `gorm:"type:varchar(16);not null"       json:"role"`
	CreatedAt    time.Time  `                                       json:"created_at"`
	UpdatedAt    time.Time  `                                       json:"updated_at"`
}

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"    json:"id"`
	Name        string    `gorm:"not null"                json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null"    json:"slug"`
	Description string    `                               json:"description"`
	ImageURL    string    `                               json:"image_url"`
	Position    int       `gorm:"default:0"               json:"position"`
	Active      bool      `gorm:"not null"                json:"active"`
	CreatedAt   time.Time `                               json:"created_at"`
	UpdatedAt   time.Time `                               json:"updated_at"`
}

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"               json:"id"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"                    json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:SET NULL"       json:"category,omitempty"`
	Title       string          `gorm:"not null"                           json:"title"`
	Description string          `gorm:"type:text"                          json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"        json:"price"`
	ImageURL    string          `                                          json:"image_url"`
	Stock       int             `gorm:"default:0"                          json:"stock"`
	Active      bool            `gorm:"not null"                           json:"active"`
	Featured    bool            `gorm:"default:false"                      json:"featured"`
	Images      []ProductImage  `gorm:"constraint:OnDelete:CASCADE"        json:"images,omitempty"`
	CreatedAt   time.Time       `                                          json:"created_at"`
	UpdatedAt   time.Time       `                                          json:"updated_at"`
}

type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"   json:"product_id"`
	URL       string    `gorm:"not null"                   json:"url"`
	Position  int       `gorm:"default:0"                  json:"position"`
	CreatedAt time.Time `                                  json:"created_at"`
}

type SpecialItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"          json:"id"`
	Title       string          `gorm:"not null"                      json:"title"`
	Description string          `                                     json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"   json:"price"`
	ImageURL    string          `                                     json:"image_url"`
	Active      bool            `gorm:"not null"                      json:"active"`
	CreatedAt   time.Time       `                                     json:"created_at"`
	UpdatedAt   time.Time       `                                     json:"updated_at"`
}

type DeliveryTimeSlot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Name      string    `gorm:"not null"                 json:"name"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end_time"`
	Active    bool      `gorm:"not null"                 json:"active"`
	CreatedAt time.Time `                                json:"created_at"`
	UpdatedAt time.Time `                                json:"updated_at"`
}

type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	OrderNumber string    `gorm:"uniqueIndex;not null"     json:"order_number"`

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`

	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	IsGift         bool   `json:"is_gift"`
	PresentedName  string `json:"presented_name"`
	PresentedPhone string `json:"presented_phone"`

	PostalCode   string `gorm:"type:varchar(8)" json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `gorm:"type:varchar(2)" json:"state"`

	DeliveryDate       *time.Time        `gorm:"type:date"            json:"delivery_date"`
	DeliveryTimeSlotID *uuid.UUID        `gorm:"type:uuid;index"      json:"delivery_time_slot_id"`
	DeliveryTimeSlot   *DeliveryTimeSlot `                            json:"delivery_time_slot,omitempty"`

	PersonalizationText string `gorm:"type:text" json:"personalization_text"`

	Status      OrderStatus     `gorm:"type:varchar(20);not null;index;default:pending" json:"status"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"           json:"total_price"`
	CompletedAt *time.Time      `                                                       json:"completed_at"`

	Items     []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time   `gorm:"index"                       json:"created_at"`
	UpdatedAt time.Time   `                                   json:"updated_at"`
}

// OrderItem with a nil ProductID is a special item add-on.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"            json:"id"`
	OrderID      uuid.UUID       `gorm:"type:uuid;index;not null"        json:"order_id"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;index"                 json:"product_id"`
	ProductTitle string          `gorm:"not null"                        json:"product_title"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(10,2);not null"     json:"unit_price"`
	Quantity     int             `gorm:"not null;check:quantity > 0"     json:"quantity"`
	CreatedAt    time.Time       `                                       json:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StoreSettings is a single row with ID 1.
type StoreSettings struct {
	ID             uint      `gorm:"primaryKey"  json:"-"`
	StoreName      string    `                   json:"store_name"`
	LogoURL        string    `                   json:"logo_url"`
	PrimaryColor   string    `                   json:"primary_color"`
	SecondaryColor string    `                   json:"secondary_color"`
	ContactPhone   string    `                   json:"contact_phone"`
	ChatPhone      string    `                   json:"chat_phone"`
	ContactEmail   string    `                   json:"contact_email"`
	Address        string    `                   json:"address"`
	Instagram      string    `                   json:"instagram"`
	UpdatedAt      time.Time `                   json:"updated_at"`
}

const SettingsID uint = 1

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

type SessionValue struct {
	SessionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"primaryKey;type:varchar(64)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *AdminUser) BeforeCreate(*gorm.DB) error        { assignID(&u.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error         { assignID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error          { assignID(&p.ID); return nil }
func (i *ProductImage) BeforeCreate(*gorm.DB) error     { assignID(&i.ID); return nil }
func (s *SpecialItem) BeforeCreate(*gorm.DB) error      { assignID(&s.ID); return nil }
func (s *DeliveryTimeSlot) BeforeCreate(*gorm.DB) error { assignID(&s.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error            { assignID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error        { assignID(&i.ID); return nil }
func (s *Session) BeforeCreate(*gorm.DB) error          { assignID(&s.ID); return nil }

// All lists every table for AutoMigrate, parents first.
func All() []any {
	return []any{
		&AdminUser{},
		&Category{},
		&Product{},
		&ProductImage{},
		&SpecialItem{},
		&DeliveryTimeSlot{},
		&Order{},
		&OrderItem{},
		&StoreSettings{},
		&Session{},
		&SessionValue{},
	}
}
