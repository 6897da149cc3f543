package domain

import "time"

// Roles a user can hold
const (
	RoleUser  = "user"  // Ordinary account
	RoleAdmin = "admin" // May read the admin endpoints
)

// User Model
type User struct {
	ID        uint         `gorm:"primaryKey" json:"id"`                                  // Primary key
	Username  string       `gorm:"size:150;uniqueIndex;not null" json:"username"`         // Unique, lowercased username
	Email     string       `gorm:"size:254;not null" json:"email"`                        // Contact email
	FirstName string       `gorm:"size:150;not null" json:"first_name"`                   // Given name
	LastName  string       `gorm:"size:150;not null" json:"last_name"`                    // Family name
	Password  string       `gorm:"not null" json:"-"`                                     // Hashed password
	Role      string       `gorm:"size:20;default:user" json:"role"`                      // Role: user or admin
	Profile   *UserProfile `gorm:"constraint:OnDelete:CASCADE;" json:"profile,omitempty"` // One-to-one financial profile
	CreatedAt time.Time    `json:"created_at"`                                            // Signup time
}

// IsAdmin reports whether the user may use the admin endpoints
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName joins first and last name for display
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
