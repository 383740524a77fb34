package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// User is the read-only projection of accounts owned by the auth service.
// The core only joins it for display names.
type User struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string     `gorm:"column:email;not null"`
	FullName  string     `gorm:"column:full_name"`
	Role      enums.Role `gorm:"column:role;type:user_role;not null;default:'user'"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
