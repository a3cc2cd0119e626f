package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values stored on a user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered customer or admin.
type User struct {
	ID           string         `json:"id" bson:"_id" gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name" bson:"name" gorm:"size:255;not null"`
	Email        string         `json:"email" bson:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string         `json:"-" bson:"password" gorm:"size:255;not null"` // Never expose in JSON
	Role         string         `json:"role" bson:"role" gorm:"size:20;not null;default:'user'"`
	Cart         map[string]int `json:"cartData" bson:"cartData" gorm:"type:text;serializer:json"`
	CartVersion  int64          `json:"-" bson:"cart_version" gorm:"not null;default:0"`
	TokenVersion int64          `json:"-" bson:"token_version" gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile returns the public view of the user.
func (u *User) Profile() *Profile {
	return &Profile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Profile is what a validated token resolves to.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
