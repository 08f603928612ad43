package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/flower_shop/internal/cart"
	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/mykafka"
	"github.com/Skotchmaster/flower_shop/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Store  *cart.Store
	Events mykafka.Publisher
}

func (s *CartService) Get(ctx context.Context, sid uuid.UUID) (*cart.Cart, error) {
	return s.Store.Load(ctx, sid)
}

// Add resolves the id against the catalog so title, price and image come from
// the database, then merges it into the session cart.
func (s *CartService) Add(ctx context.Context, sid uuid.UUID, id string, qty int) (*cart.Cart, cart.Item, error) {
	if qty <= 0 {
		qty = 1
	}
	item, stock, err := s.resolve(ctx, id)
	if err != nil {
		return nil, cart.Item{}, err
	}

	c, err := s.Store.Load(ctx, sid)
	if err != nil {
		return nil, cart.Item{}, err
	}
	if stock >= 0 {
		have, _ := c.Find(item.ID)
		if have.Quantity+qty > stock {
			return nil, cart.Item{}, fmt.Errorf("%w: only %d in stock", ErrConflict, stock)
		}
	}
	item.Quantity = qty
	added := c.Add(item)
	if err := s.Store.Save(ctx, sid, c); err != nil {
		return nil, cart.Item{}, err
	}

	s.publish(ctx, sid, "cart_item_added", map[string]any{"item_id": item.ID, "quantity": qty})
	return c, added, nil
}

func (s *CartService) SetQuantity(ctx context.Context, sid uuid.UUID, id string, qty int) (*cart.Cart, error) {
	c, err := s.Store.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Find(id); !ok {
		return nil, fmt.Errorf("%w: item not in cart", ErrNotFound)
	}
	if qty > 0 {
		pid, special, err := cart.ParseID(id)
		if err != nil {
			return nil, invalid("%v", err)
		}
		if !special {
			p, err := s.Repo.GetProduct(ctx, pid)
			if err != nil {
				return nil, notFound(err, "product")
			}
			if qty > p.Stock {
				return nil, fmt.Errorf("%w: only %d in stock", ErrConflict, p.Stock)
			}
		}
	}
	c.SetQuantity(id, qty)
	if err := s.Store.Save(ctx, sid, c); err != nil {
		return nil, err
	}
	s.publish(ctx, sid, "cart_quantity_set", map[string]any{"item_id": id, "quantity": qty})
	return c, nil
}

func (s *CartService) Remove(ctx context.Context, sid uuid.UUID, id string) (*cart.Cart, error) {
	c, err := s.Store.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !c.Remove(id) {
		return nil, fmt.Errorf("%w: item not in cart", ErrNotFound)
	}
	if err := s.Store.Save(ctx, sid, c); err != nil {
		return nil, err
	}
	s.publish(ctx, sid, "cart_item_removed", map[string]any{"item_id": id})
	return c, nil
}

func (s *CartService) Clear(ctx context.Context, sid uuid.UUID) error {
	if err := s.Store.Save(ctx, sid, &cart.Cart{}); err != nil {
		return err
	}
	s.publish(ctx, sid, "cart_cleared", nil)
	return nil
}

// resolve returns the cart line for id and the available stock; -1 means unlimited.
func (s *CartService) resolve(ctx context.Context, id string) (cart.Item, int, error) {
	uid, special, err := cart.ParseID(id)
	if err != nil {
		return cart.Item{}, 0, invalid("%v", err)
	}
	if special {
		si, err := s.Repo.GetSpecialItem(ctx, uid)
		if err != nil {
			return cart.Item{}, 0, notFound(err, "special item")
		}
		if !si.Active {
			return cart.Item{}, 0, fmt.Errorf("%w: special item", ErrNotFound)
		}
		return cart.Item{ID: cart.SpecialID(si.ID), Title: si.Title, Price: si.Price, Image: si.ImageURL}, -1, nil
	}

	p, err := s.Repo.GetProduct(ctx, uid)
	if err != nil {
		return cart.Item{}, 0, notFound(err, "product")
	}
	if !p.Active {
		return cart.Item{}, 0, fmt.Errorf("%w: product", ErrNotFound)
	}
	return cart.Item{ID: p.ID.String(), Title: p.Title, Price: p.Price, Image: p.ImageURL}, p.Stock, nil
}

func (s *CartService) publish(ctx context.Context, sid uuid.UUID, typ string, data map[string]any) {
	if s.Events == nil {
		return
	}
	event := map[string]any{"type": typ, "session_id": sid.String(), "at": time.Now().UTC()}
	for k, v := range data {
		event[k] = v
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(ctx, mykafka.TopicCart, sid.String(), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", mykafka.TopicCart, "error", err)
	}
}
