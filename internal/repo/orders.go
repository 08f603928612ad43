package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/models"
)

type OrderFilter struct {
	Status models.OrderStatus
	Query  string
	Offset int
	Limit  int
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		q = q.Where("LOWER(order_number) LIKE ? ESCAPE '\\' OR LOWER(customer_name) LIKE ? ESCAPE '\\' OR customer_phone LIKE ? ESCAPE '\\'", p, p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	find := q.Order("created_at DESC").Order("id ASC")
	if f.Limit > 0 {
		find = find.Offset(f.Offset).Limit(f.Limit)
	}
	if err := find.Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("DeliveryTimeSlot").
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("DeliveryTimeSlot").
		Where("order_number = ?", number).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("order_number = ?", number).Count(&n).Error
	return n > 0, err
}

// UpsertOrderWithItems creates or updates the order and replaces its items in one transaction.
// The order total is recomputed from the new items.
func (r *GormRepo) UpsertOrderWithItems(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if o.ID == uuid.Nil {
			if err := tx.Omit("Items", "DeliveryTimeSlot").Create(o).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Omit("Items", "DeliveryTimeSlot").Save(o).Error; err != nil {
				return err
			}
		}
		total, err := replaceItems(tx, o.ID, items)
		if err != nil {
			return err
		}
		o.TotalPrice = total
		o.Items = items
		return tx.Model(&models.Order{}).Where("id = ?", o.ID).Update("total_price", total).Error
	})
}

// CompleteOrder swaps the order's items for the given ones, updates the total and
// stamps completed_at, all in one transaction.
func (r *GormRepo) CompleteOrder(ctx context.Context, orderID uuid.UUID, items []models.OrderItem, at time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		t, err := replaceItems(tx, orderID, items)
		if err != nil {
			return err
		}
		total = t
		return tx.Model(&models.Order{}).Where("id = ?", orderID).
			Updates(map[string]any{"total_price": t, "completed_at": at}).Error
	})
	return total, err
}

func replaceItems(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItem) (decimal.Decimal, error) {
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].OrderID = orderID
		total = total.Add(items[i].LineTotal())
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return decimal.Zero, err
		}
	}
	return total, nil
}

// UpdateOrderFields applies a partial update; a missing order reports gorm.ErrRecordNotFound.
func (r *GormRepo) UpdateOrderFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.Order{}, id)
	})
}

// OrdersSince returns orders created at or after since, with items, for dashboard aggregation.
func (r *GormRepo) OrdersSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
