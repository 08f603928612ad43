package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/flower_shop/internal/models"
)

type ProductFilter struct {
	CategoryID *uuid.UUID
	Query      string
	ActiveOnly bool
	Active     *bool
	Featured   bool
	Offset     int
	Limit      int
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	if f.Featured {
		q = q.Where("featured = ?", true)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		q = q.Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	find := q.Preload("Category").Order("created_at DESC").Order("id ASC")
	if f.Limit > 0 {
		find = find.Offset(f.Offset).Limit(f.Limit)
	}
	if err := find.Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var items []models.Product
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit("Category", "Images").Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit("Category", "Images").Save(p).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) CountProducts(ctx context.Context, activeOnly bool) (int64, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *GormRepo) CountProductsInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

// AddProductImage appends an image and makes it the cover when the product has none.
func (r *GormRepo) AddProductImage(ctx context.Context, img *models.ProductImage) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Where("id = ?", img.ProductID).First(&p).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.ProductImage{}).Where("product_id = ?", img.ProductID).Count(&n).Error; err != nil {
			return err
		}
		img.Position = int(n)
		if err := tx.Create(img).Error; err != nil {
			return err
		}
		if p.ImageURL == "" {
			return tx.Model(&p).Update("image_url", img.URL).Error
		}
		return nil
	})
}

func (r *GormRepo) DeleteProductImage(ctx context.Context, productID, imageID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img models.ProductImage
		if err := tx.Where("id = ? AND product_id = ?", imageID, productID).First(&img).Error; err != nil {
			return err
		}
		if err := tx.Delete(&img).Error; err != nil {
			return err
		}
		var p models.Product
		if err := tx.Where("id = ?", productID).First(&p).Error; err != nil {
			return err
		}
		if p.ImageURL != img.URL {
			return nil
		}
		var next models.ProductImage
		err := tx.Where("product_id = ?", productID).Order("position ASC").First(&next).Error
		switch {
		case err == nil:
			return tx.Model(&p).Update("image_url", next.URL).Error
		case err == gorm.ErrRecordNotFound:
			return tx.Model(&p).Update("image_url", "").Error
		default:
			return err
		}
	})
}
