package domain

import "github.com/shopspring/decimal"

// Budget status buckets, by share of the monthly budget already spent
const (
	BudgetNone    = "no-budget"
	BudgetSafe    = "safe"
	BudgetWarning = "warning"
	BudgetDanger  = "danger"
)

var (
	warningThreshold = decimal.NewFromInt(70)
	dangerThreshold  = decimal.NewFromInt(90)
)

// BudgetPercentage is spent / budget * 100, or 0 when there is no budget
func BudgetPercentage(spent, budget decimal.Decimal) decimal.Decimal {
	if !budget.IsPositive() {
		return decimal.Zero
	}
	return spent.Div(budget).Mul(hundred)
}

// BudgetStatus buckets spending against the budget
func BudgetStatus(spent, budget decimal.Decimal) string {
	if budget.IsZero() {
		return BudgetNone
	}
	pct := BudgetPercentage(spent, budget)
	switch {
	case pct.LessThan(warningThreshold):
		return BudgetSafe
	case pct.LessThan(dangerThreshold):
		return BudgetWarning
	default:
		return BudgetDanger
	}
}

// Percentage is part / total * 100 rounded to one place, 0 when total is 0
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(1)
}
