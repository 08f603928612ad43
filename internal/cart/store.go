package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/flower_shop/internal/logging"
)

const Key = "cart"

// Values is the per-session key/value storage the cart is persisted in.
type Values interface {
	Get(ctx context.Context, sid uuid.UUID, key string) (string, bool, error)
	Set(ctx context.Context, sid uuid.UUID, key, value string) error
	Delete(ctx context.Context, sid uuid.UUID, keys ...string) error
}

type Store struct {
	Values Values
}

func (s *Store) Load(ctx context.Context, sid uuid.UUID) (*Cart, error) {
	raw, found, err := s.Values.Get(ctx, sid, Key)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !found {
		return &Cart{}, nil
	}
	c, ok := Decode(raw)
	if !ok {
		logging.FromContext(ctx).Warn("cart_discarded", "reason", "stored cart is not valid json", "session_id", sid)
		if err := s.Values.Delete(ctx, sid, Key); err != nil {
			return nil, fmt.Errorf("drop corrupt cart: %w", err)
		}
	}
	return c, nil
}

// Save writes the cart; an empty cart removes the stored key.
func (s *Store) Save(ctx context.Context, sid uuid.UUID, c *Cart) error {
	if c.Empty() {
		if err := s.Values.Delete(ctx, sid, Key); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	}
	raw, err := c.Encode()
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.Values.Set(ctx, sid, Key, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
