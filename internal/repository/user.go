// Package repository contains data access interfaces and their GORM implementations.
package repository

import (
	"context"
	"errors"

	"banana/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetBySocial(ctx context.Context, provider, socialID string) (*models.User, error)
	// FindOrCreateBySocial returns the user for (provider, socialID), inserting
	// a new row on first login. The bool result is true when a row was created.
	FindOrCreateBySocial(ctx context.Context, provider, socialID, name, email string) (*models.User, bool, error)
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetBySocial(ctx context.Context, provider, socialID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("provider = ? AND social_id = ?", provider, socialID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateBySocial implements lookup-or-insert on the (provider, social_id)
// natural key. Two concurrent first logins for the same identity both reach the
// insert; the unique index rejects the loser, which re-fetches the winner's row
// instead of failing the login. Existing rows are returned unchanged, without
// re-syncing name or email from the provider.
func (r *userRepository) FindOrCreateBySocial(ctx context.Context, provider, socialID, name, email string) (*models.User, bool, error) {
	user, err := r.GetBySocial(ctx, provider, socialID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if name == "" {
		name = models.NoName
	}
	if email == "" {
		email = models.NoEmail
	}

	created := models.User{
		Provider: provider,
		SocialID: socialID,
		Name:     name,
		Email:    email,
	}
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := r.GetBySocial(ctx, provider, socialID)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return &created, true, nil
}
