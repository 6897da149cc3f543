package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMonthlyBudget is the budget given to every new profile
var DefaultMonthlyBudget = decimal.NewFromInt(5000)

// UserProfile Model
type UserProfile struct {
	ID            uint            `gorm:"primaryKey" json:"id"`                                           // Primary key
	UserID        uint            `gorm:"uniqueIndex;not null" json:"user_id"`                            // Foreign key to User
	TotalBalance  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_balance"`     // Income minus expenses, recomputed on every write
	MonthlyBudget decimal.Decimal `gorm:"type:decimal(12,2);not null;default:5000" json:"monthly_budget"` // User-set spending limit
	CreatedAt     time.Time       `json:"created_at"`                                                     // Creation time
	UpdatedAt     time.Time       `json:"updated_at"`                                                     // Last update time
}

// NewProfile returns a fresh profile for userID with the default budget
func NewProfile(userID uint) UserProfile {
	return UserProfile{
		UserID:        userID,
		TotalBalance:  decimal.Zero,
		MonthlyBudget: DefaultMonthlyBudget,
	}
}
