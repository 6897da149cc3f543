package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PortfolioTotals summarizes the positions of a watchlist
type PortfolioTotals struct {
	TotalValue         decimal.Decimal     `json:"total_value"`          // Sum of defined position values
	TotalCost          decimal.Decimal     `json:"total_cost"`           // Sum of defined position costs
	GainLoss           decimal.Decimal     `json:"gain_loss"`            // Value minus cost, 0 when either is absent
	GainLossPercentage decimal.NullDecimal `json:"gain_loss_percentage"` // Gain/loss over cost, undefined when cost is 0
	Positions          int                 `json:"positions"`            // Items with quantity > 0
}

// ComputePortfolioTotals aggregates the items that are actually held.
// Items without quantity are watched, not owned, and are ignored.
func ComputePortfolioTotals(items []WatchlistItem) PortfolioTotals {
	totals := PortfolioTotals{TotalValue: decimal.Zero, TotalCost: decimal.Zero, GainLoss: decimal.Zero}
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			continue
		}
		totals.Positions++
		if v := item.TotalValue(); v.Valid {
			totals.TotalValue = totals.TotalValue.Add(v.Decimal)
		}
		if c := item.TotalCost(); c.Valid {
			totals.TotalCost = totals.TotalCost.Add(c.Decimal)
		}
	}
	if !totals.TotalValue.IsZero() && !totals.TotalCost.IsZero() {
		totals.GainLoss = totals.TotalValue.Sub(totals.TotalCost)
		totals.GainLossPercentage = defined(totals.GainLoss.Div(totals.TotalCost).Mul(hundred))
	}
	return totals
}
