package transport

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/roles"
)

type AddCartItemRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CreateProductRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id"`
	Stock       int             `json:"stock"`
	Active      *bool           `json:"active"`
	Featured    bool            `json:"featured"`
}

type PatchProductRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *string          `json:"category_id"`
	Stock       *int             `json:"stock"`
	Active      *bool            `json:"active"`
	Featured    *bool            `json:"featured"`
}

type CategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
	Active      *bool   `json:"active"`
}

type SpecialItemRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"active"`
}

type TimeSlotRequest struct {
	Name      *string `json:"name"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Active    *bool   `json:"active"`
}

type OrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type SettingsRequest struct {
	StoreName      *string `json:"store_name"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	ContactPhone   *string `json:"contact_phone"`
	ChatPhone      *string `json:"chat_phone"`
	ContactEmail   *string `json:"contact_email"`
	Address        *string `json:"address"`
	Instagram      *string `json:"instagram"`
}

type CreateUserRequest struct {
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Role     roles.Role `json:"role"`
}

type PatchUserRequest struct {
	Name     *string     `json:"name"`
	Password *string     `json:"password"`
	Role     *roles.Role `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
