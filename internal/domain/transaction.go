package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction types
const (
	TypeExpense = "EXPENSE" // Money going out
	TypeIncome  = "INCOME"  // Money coming in
)

// Transaction categories
const (
	CategoryFood          = "FOOD"
	CategoryTransport     = "TRANSPORT"
	CategoryShopping      = "SHOPPING"
	CategoryEntertainment = "ENTERTAINMENT"
	CategoryBills         = "BILLS"
	CategoryHealth        = "HEALTH"
	CategoryEducation     = "EDUCATION"
	CategoryInvestment    = "INVESTMENT"
	CategorySalary        = "SALARY"
	CategoryOther         = "OTHER"
)

// TransactionTypes lists the valid transaction types in display order
var TransactionTypes = []Choice{
	{TypeExpense, "Expense"},
	{TypeIncome, "Income"},
}

// Categories lists the valid categories in display order
var Categories = []Choice{
	{CategoryFood, "Food & Dining"},
	{CategoryTransport, "Transportation"},
	{CategoryShopping, "Shopping"},
	{CategoryEntertainment, "Entertainment"},
	{CategoryBills, "Bills & Utilities"},
	{CategoryHealth, "Healthcare"},
	{CategoryEducation, "Education"},
	{CategoryInvestment, "Investment"},
	{CategorySalary, "Salary"},
	{CategoryOther, "Other"},
}

// Transaction Model
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                                      // Primary key
	UserID      uint            `gorm:"not null;index:idx_transactions_user_date,priority:1" json:"user_id"`       // Owner
	Type        string          `gorm:"column:transaction_type;size:10;not null;default:EXPENSE" json:"type"`      // EXPENSE or INCOME
	Category    string          `gorm:"size:20;not null;default:OTHER" json:"category"`                            // One of Categories
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`                                 // Always stored positive
	Description string          `gorm:"type:text" json:"description"`                                              // Free text, may be blank
	Date        time.Time       `gorm:"type:date;not null;index:idx_transactions_user_date,priority:2" json:"date"` // Calendar date of the transaction
	CreatedAt   time.Time       `json:"created_at"`                                                                // Creation time
	UpdatedAt   time.Time       `json:"updated_at"`                                                                // Last update time
}

// TransactionOrder is the default ordering: newest date first, then newest row
const TransactionOrder = "date desc, created_at desc, id desc"

// BeforeSave keeps the amount positive; the type carries the direction
func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	t.Amount = t.Amount.Abs()
	t.Date = DateOnly(t.Date)
	return nil
}

// IsIncome reports whether the transaction adds to the balance
func (t Transaction) IsIncome() bool {
	return t.Type == TypeIncome
}

// TypeLabel returns the display label of the transaction type
func (t Transaction) TypeLabel() string {
	return TransactionTypeLabel(t.Type)
}

// CategoryLabel returns the display label of the category
func (t Transaction) CategoryLabel() string {
	return CategoryLabel(t.Category)
}

// IsValidTransactionType reports whether v is EXPENSE or INCOME
func IsValidTransactionType(v string) bool {
	return hasValue(TransactionTypes, v)
}

// IsValidCategory reports whether v is a known category
func IsValidCategory(v string) bool {
	return hasValue(Categories, v)
}

// TransactionTypeLabel maps a type value to its label
func TransactionTypeLabel(v string) string {
	return labelOf(TransactionTypes, v)
}

// CategoryLabel maps a category value to its label
func CategoryLabel(v string) string {
	return labelOf(Categories, v)
}

// DateOnly truncates t to midnight UTC of its calendar day
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
