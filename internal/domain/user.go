package domain

import "time"

// Role values
const (
	RoleUser  = "user"  // Regular user, sees only their own records
	RoleStaff = "staff" // Staff user, sees every record
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`             // Primary key
	Username  string    `gorm:"unique;not null" json:"username"`  // Unique username
	Password  string    `gorm:"not null" json:"-"`                // Hashed password, never serialized
	Role      string    `gorm:"default:user" json:"role"`         // Role: user or staff
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"` // Timestamp of registration
}

// IsStaff reports whether the user has unrestricted record access
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}
