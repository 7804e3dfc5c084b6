// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Social login providers recognized by the application.
const (
	ProviderKakao  = "kakao"
	ProviderGoogle = "google"
	ProviderNaver  = "naver"
)

// Sentinel values stored when a provider does not share the field.
const (
	NoName  = "No Name"
	NoEmail = "No Email"
)

// User represents a locally registered social-login user.
//
// A user row is created on the first successful login for a given
// (provider, social_id) pair and is never field-refreshed afterwards; name
// and email drift on the provider side is not re-synced.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Provider  string    `gorm:"not null;uniqueIndex:idx_users_provider_social" json:"provider"`
	SocialID  string    `gorm:"not null;uniqueIndex:idx_users_provider_social" json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Posts     []Post    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
}
