package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/flower_shop/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteExpiredSessions removes sessions past their expiry along with their values.
func (r *GormRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.Session{}).Select("id").Where("expires_at < ?", now)
		if err := tx.Where("session_id IN (?)", expired).Delete(&models.SessionValue{}).Error; err != nil {
			return err
		}
		res := tx.Where("expires_at < ?", now).Delete(&models.Session{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}

func (r *GormRepo) GetValue(ctx context.Context, sid uuid.UUID, key string) (string, bool, error) {
	var v models.SessionValue
	err := r.DB.WithContext(ctx).Where("session_id = ? AND name = ?", sid, key).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v.Value, true, nil
}

func (r *GormRepo) SetValue(ctx context.Context, sid uuid.UUID, key, value string) error {
	v := models.SessionValue{SessionID: sid, Name: key, Value: value}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&v).Error
}

func (r *GormRepo) DeleteValues(ctx context.Context, sid uuid.UUID, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).
		Where("session_id = ? AND name IN ?", sid, keys).
		Delete(&models.SessionValue{}).Error
}
