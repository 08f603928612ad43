package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/roles"
)

func (r *GormRepo) ListUsers(ctx context.Context, query string) ([]models.AdminUser, error) {
	q := r.DB.WithContext(ctx).Model(&models.AdminUser{})
	if query != "" {
		p := likePattern(query)
		q = q.Where("LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(name) LIKE ? ESCAPE '\\'", p, p)
	}
	var users []models.AdminUser
	if err := q.Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUserIfNotExists returns ErrUserAlreadyExist when the username is taken.
func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.AdminUser) error {
	tx := r.DB.WithContext(ctx).Where("username = ?", u.Username).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.AdminUser) error {
	return r.DB.WithContext(ctx).Save(u).Error
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return deleteByID(r.DB.WithContext(ctx), &models.AdminUser{}, id)
}

func (r *GormRepo) CountUsersWithRole(ctx context.Context, role roles.Role) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.AdminUser{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
