// Package cart holds the shopping cart: an ordered list of items keyed by product id,
// or by "special-<id>" for special item add-ons.
package cart

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const SpecialPrefix = "special-"

var ErrInvalidID = errors.New("invalid cart item id")

type Item struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) IsSpecial() bool {
	return strings.HasPrefix(i.ID, SpecialPrefix)
}

type Cart struct {
	items     []Item
	lastAdded string
}

func New(items ...Item) *Cart {
	c := &Cart{}
	for _, it := range items {
		c.Add(it)
	}
	c.lastAdded = ""
	return c
}

// Add merges quantities for an existing id, otherwise appends. A non-positive
// quantity counts as one. The item becomes the one to announce as just added.
func (c *Cart) Add(it Item) Item {
	if it.Quantity <= 0 {
		it.Quantity = 1
	}
	c.lastAdded = it.ID
	for i := range c.items {
		if c.items[i].ID == it.ID {
			c.items[i].Quantity += it.Quantity
			return c.items[i]
		}
	}
	c.items = append(c.items, it)
	return it
}

func (c *Cart) Remove(id string) bool {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			if c.lastAdded == id {
				c.lastAdded = ""
			}
			return true
		}
	}
	return false
}

// SetQuantity overwrites the quantity; n <= 0 removes the item.
func (c *Cart) SetQuantity(id string, n int) bool {
	if n <= 0 {
		return c.Remove(id)
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = n
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.items = nil
	c.lastAdded = ""
}

func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Find(id string) (Item, bool) {
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (c *Cart) LastAdded() (Item, bool) {
	if c.lastAdded == "" {
		return Item{}, false
	}
	return c.Find(c.lastAdded)
}

func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

// Count is the sum of quantities.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) Encode() (string, error) {
	items := c.items
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode rehydrates a stored cart. Anything unparseable yields an empty cart and ok=false;
// entries without an id or with a non-positive quantity are dropped.
func Decode(raw string) (c *Cart, ok bool) {
	c = &Cart{}
	if strings.TrimSpace(raw) == "" {
		return c, true
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return c, false
	}
	for _, it := range items {
		if it.ID == "" || it.Quantity <= 0 {
			continue
		}
		c.items = append(c.items, it)
	}
	return c, true
}

func SpecialID(id uuid.UUID) string {
	return SpecialPrefix + id.String()
}

// ParseID splits a cart id into the referenced entity id and whether it is a special item.
func ParseID(id string) (uuid.UUID, bool, error) {
	special := strings.HasPrefix(id, SpecialPrefix)
	raw := strings.TrimPrefix(id, SpecialPrefix)
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, ErrInvalidID
	}
	return u, special, nil
}
