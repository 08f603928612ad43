package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context, activeOnly bool, query string) ([]models.Category, error) {
	q := r.DB.WithContext(ctx).Model(&models.Category{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if query != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(query))
	}
	var items []models.Category
	if err := q.Order("position ASC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.DB.WithContext(ctx), &models.Category{}, id)
}

func (r *GormRepo) ListSpecialItems(ctx context.Context, activeOnly bool, query string) ([]models.SpecialItem, error) {
	q := r.DB.WithContext(ctx).Model(&models.SpecialItem{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if query != "" {
		q = q.Where("LOWER(title) LIKE ? ESCAPE '\\'", likePattern(query))
	}
	var items []models.SpecialItem
	if err := q.Order("title ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetSpecialItem(ctx context.Context, id uuid.UUID) (*models.SpecialItem, error) {
	var s models.SpecialItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) CreateSpecialItem(ctx context.Context, s *models.SpecialItem) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) SaveSpecialItem(ctx context.Context, s *models.SpecialItem) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

func (r *GormRepo) DeleteSpecialItem(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.DB.WithContext(ctx), &models.SpecialItem{}, id)
}

func (r *GormRepo) ListTimeSlots(ctx context.Context, activeOnly bool) ([]models.DeliveryTimeSlot, error) {
	q := r.DB.WithContext(ctx).Model(&models.DeliveryTimeSlot{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var items []models.DeliveryTimeSlot
	if err := q.Order("start_time ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetTimeSlot(ctx context.Context, id uuid.UUID) (*models.DeliveryTimeSlot, error) {
	var s models.DeliveryTimeSlot
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) CreateTimeSlot(ctx context.Context, s *models.DeliveryTimeSlot) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) SaveTimeSlot(ctx context.Context, s *models.DeliveryTimeSlot) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

func (r *GormRepo) DeleteTimeSlot(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.DB.WithContext(ctx), &models.DeliveryTimeSlot{}, id)
}

// GetSettings returns the settings row, creating an empty one on first use.
func (r *GormRepo) GetSettings(ctx context.Context) (*models.StoreSettings, error) {
	s := models.StoreSettings{ID: models.SettingsID}
	if err := r.DB.WithContext(ctx).FirstOrCreate(&s, models.StoreSettings{ID: models.SettingsID}).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) SaveSettings(ctx context.Context, s *models.StoreSettings) error {
	s.ID = models.SettingsID
	return r.DB.WithContext(ctx).Save(s).Error
}

func deleteByID(db *gorm.DB, model any, id uuid.UUID) error {
	res := db.Delete(model, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
