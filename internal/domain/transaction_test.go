package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionBeforeSaveStoresAbsoluteAmount(t *testing.T) {
	tx := Transaction{Type: TypeExpense, Amount: decimal.NewFromInt(-50)}

	require.NoError(t, tx.BeforeSave(nil))

	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(50)))
}

func TestTransactionBeforeSaveTruncatesDate(t *testing.T) {
	tx := Transaction{Amount: decimal.NewFromInt(1), Date: time.Date(2026, 10, 5, 17, 45, 0, 0, time.UTC)}

	require.NoError(t, tx.BeforeSave(nil))

	assert.Equal(t, time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), tx.Date)
}

func TestTransactionEnums(t *testing.T) {
	assert.True(t, IsValidTransactionType(TypeIncome))
	assert.False(t, IsValidTransactionType("income"))
	assert.True(t, IsValidCategory(CategoryFood))
	assert.False(t, IsValidCategory("GROCERIES"))
	assert.Equal(t, "Food & Dining", CategoryLabel(CategoryFood))
	assert.Equal(t, "UNKNOWN", CategoryLabel("UNKNOWN"))
	assert.Len(t, Categories, 10)
}

func TestBudgetPercentage(t *testing.T) {
	tests := []struct {
		name   string
		spent  string
		budget string
		want   string
	}{
		{"no budget", "1200", "0", "0"},
		{"half", "250", "500", "50"},
		{"over", "750", "500", "150"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BudgetPercentage(decimal.RequireFromString(tt.spent), decimal.RequireFromString(tt.budget))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestBudgetStatus(t *testing.T) {
	budget := decimal.NewFromInt(100)
	assert.Equal(t, BudgetNone, BudgetStatus(decimal.NewFromInt(10), decimal.Zero))
	assert.Equal(t, BudgetSafe, BudgetStatus(decimal.NewFromInt(69), budget))
	assert.Equal(t, BudgetWarning, BudgetStatus(decimal.NewFromInt(70), budget))
	assert.Equal(t, BudgetDanger, BudgetStatus(decimal.NewFromInt(90), budget))
}

func TestPercentage(t *testing.T) {
	got := Percentage(decimal.NewFromInt(1), decimal.NewFromInt(3))
	assert.Equal(t, "33.3", got.String())
	assert.True(t, Percentage(decimal.NewFromInt(1), decimal.Zero).IsZero())
}
