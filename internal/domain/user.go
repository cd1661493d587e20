package domain

// Role of a storefront user
type Role string

const (
	RoleUser  Role = "user"  // Regular shopper
	RoleAdmin Role = "admin" // Storefront administrator
)

// User Model
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false" json:"id"` // Epoch-millisecond id assigned at registration
	Name         string `gorm:"not null" json:"name"`                     // Display name
	Email        string `gorm:"size:191;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`                // bcrypt hash, never serialized
	Role         Role   `gorm:"size:16;default:user" json:"role"` // Role: user or admin
	CreatedAt    int64  `gorm:"autoCreateTime:milli" json:"created_at,omitempty"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role Role) bool {
	return u != nil && u.Role == role
}
