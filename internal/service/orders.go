package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/flower_shop/internal/logging"
	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/mykafka"
	"github.com/Skotchmaster/flower_shop/internal/repo"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
}

func (s *OrderService) List(ctx context.Context, status, query string, offset, limit int) (int64, []models.Order, error) {
	st := models.OrderStatus(status)
	if st != "" && !st.Valid() {
		return 0, nil, invalid("unknown status %q", status)
	}
	return s.Repo.ListOrders(ctx, repo.OrderFilter{Status: st, Query: query, Offset: offset, Limit: limit})
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

// UpdateStatus moves an order forward along its lifecycle or cancels it.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, invalid("unknown status %q", to)
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrConflict, o.Status, to)
	}
	from := o.Status
	if err := s.Repo.UpdateOrderFields(ctx, id, map[string]any{"status": to}); err != nil {
		return nil, notFound(err, "order")
	}

	if s.Events != nil {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		event := map[string]any{
			"type":         "order_status_changed",
			"order_id":     id.String(),
			"order_number": o.OrderNumber,
			"from":         from,
			"to":           to,
			"at":           time.Now().UTC(),
		}
		if err := s.Events.PublishEvent(pctx, mykafka.TopicOrders, o.OrderNumber, event); err != nil {
			logging.FromContext(ctx).Error("kafka_publish_error", "topic", mykafka.TopicOrders, "error", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.Repo.DeleteOrder(ctx, id), "order")
}
