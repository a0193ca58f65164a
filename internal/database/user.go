package database

import (
	"context"
	"time"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/models"
	"github.com/google/uuid"
)

func (d *Database) SaveUser(ctx context.Context, user *models.User) error {
	return d.db.WithContext(ctx).Create(user).Error
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) SearchUsersByUsername(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	err := d.db.WithContext(ctx).
		Where("username ILIKE ?", "%"+query+"%").
		Order("username ASC").
		Limit(20).
		Find(&users).Error
	return users, err
}

func (d *Database) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_seen_at", time.Now()).Error
}
