package ledger

import (
	"context" // Request scoped cancellation
	"fmt"     // Error wrapping
	"time"    // Month boundaries

	"finance_portfolio/internal/domain" // Domain models
	"finance_portfolio/internal/utils"  // Cache helpers

	"github.com/shopspring/decimal" // Money arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
	"golang.org/x/sync/errgroup"    // Concurrent aggregate queries
	"gorm.io/gorm"                  // GORM ORM library
)

const (
	topCategories = 5
	recentRows    = 5
)

// CategoryShare is the monthly spending of one category
type CategoryShare struct {
	Category   string          `json:"category"`
	Label      string          `json:"label"`
	Total      decimal.Decimal `json:"total"`
	Percentage decimal.Decimal `json:"percentage"` // Share of the month's expenses
}

// Dashboard is the summary shown on the home page
type Dashboard struct {
	TotalBalance     decimal.Decimal      `json:"total_balance"`
	MonthlyBudget    decimal.Decimal      `json:"monthly_budget"`
	MonthlyExpenses  decimal.Decimal      `json:"monthly_expenses"`
	MonthlyIncome    decimal.Decimal      `json:"monthly_income"`
	TotalExpenses    decimal.Decimal      `json:"total_expenses"`
	TotalIncome      decimal.Decimal      `json:"total_income"`
	BudgetRemaining  decimal.Decimal      `json:"budget_remaining"`
	BudgetPercentage decimal.Decimal      `json:"budget_percentage"`
	BudgetStatus     string               `json:"budget_status"`
	Categories       []CategoryShare      `json:"categories"`
	Recent           []domain.Transaction `json:"recent"`
	MonthLabel       string               `json:"month_label"`
}

// MonthBounds returns the first day of now's month and today, both as dates
func MonthBounds(now time.Time) (time.Time, time.Time) {
	today := domain.DateOnly(now)
	return today.AddDate(0, 0, 1-today.Day()), today
}

// Dashboard aggregates the user's balance, budget usage and recent activity
func (s *Service) Dashboard(ctx context.Context, userID uint) (Dashboard, error) {
	key := utils.DashboardCacheKey(userID)
	var d Dashboard
	if hit, err := utils.GetCache(ctx, s.rdb, key, &d); err == nil && hit {
		return d, nil // Return cached summary
	} else if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Dashboard cache read failed")
	}

	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return d, fmt.Errorf("dashboard profile: %w", err)
	}
	now := s.now()
	from, to := MonthBounds(now)

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)
	g.Go(func() (err error) {
		d.MonthlyExpenses, err = sumAmount(db, userID, domain.TypeExpense, from, to)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlyIncome, err = sumAmount(db, userID, domain.TypeIncome, from, to)
		return err
	})
	g.Go(func() (err error) {
		d.TotalExpenses, err = sumAmount(db, userID, domain.TypeExpense, time.Time{}, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		d.TotalIncome, err = sumAmount(db, userID, domain.TypeIncome, time.Time{}, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		d.Categories, err = categoryTotals(db, userID, from, to)
		return err
	})
	g.Go(func() error {
		return scoped(db, userID).Order(domain.TransactionOrder).Limit(recentRows).Find(&d.Recent).Error
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("dashboard aggregates: %w", err)
	}

	d.TotalBalance = profile.TotalBalance
	d.MonthlyBudget = profile.MonthlyBudget
	d.BudgetRemaining = profile.MonthlyBudget.Sub(d.MonthlyExpenses)
	d.BudgetPercentage = domain.BudgetPercentage(d.MonthlyExpenses, profile.MonthlyBudget)
	d.BudgetStatus = domain.BudgetStatus(d.MonthlyExpenses, profile.MonthlyBudget)
	for i := range d.Categories {
		d.Categories[i].Percentage = domain.Percentage(d.Categories[i].Total, d.MonthlyExpenses)
	}
	d.MonthLabel = now.Format("January 2006")

	if err := utils.SetCache(ctx, s.rdb, key, d, utils.DefaultCacheTTL); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Dashboard cache write failed")
	}
	return d, nil
}

// sumAmount totals one transaction type, limited to [from, to] unless from is zero
func sumAmount(db *gorm.DB, userID uint, txType string, from, to time.Time) (decimal.Decimal, error) {
	q := scoped(db.Model(&domain.Transaction{}), userID).
		Select("SUM(amount)").
		Where("transaction_type = ?", txType)
	if !from.IsZero() {
		q = q.Where("date >= ? AND date <= ?", from, to)
	}
	var total decimal.NullDecimal
	if err := q.Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum %s: %w", txType, err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

// categoryTotals returns the biggest expense categories between from and to
func categoryTotals(db *gorm.DB, userID uint, from, to time.Time) ([]CategoryShare, error) {
	rows, err := scoped(db.Model(&domain.Transaction{}), userID).
		Select("category, SUM(amount) AS total").
		Where("transaction_type = ? AND date >= ? AND date <= ?", domain.TypeExpense, from, to).
		Group("category").
		Order("total desc, category").
		Limit(topCategories).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	shares := []CategoryShare{}
	for rows.Next() {
		var category string
		var total decimal.NullDecimal
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		shares = append(shares, CategoryShare{
			Category: category,
			Label:    domain.CategoryLabel(category),
			Total:    total.Decimal.Round(2),
		})
	}
	return shares, rows.Err()
}
