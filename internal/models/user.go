package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string     `gorm:"type:varchar(36);primarykey" bson:"_id" json:"id"`
	Name         string     `gorm:"type:varchar(50);not null" bson:"name" json:"name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" bson:"password_hash" json:"-"`
	Role         UserRole   `gorm:"type:varchar(20);not null;index" bson:"role" json:"role"`
	IsActive     bool       `gorm:"not null" bson:"is_active" json:"is_active"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"last_login"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// BeforeCreate assigns an identifier and normalizes the email.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Prepare()
	return nil
}

// Prepare fills in defaults for a user that is about to be stored.
func (u *User) Prepare() {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Email = NormalizeEmail(u.Email)
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
