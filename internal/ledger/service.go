package ledger

import (
	"context" // Request scoped cancellation
	"errors"  // Sentinel errors
	"fmt"     // Error wrapping
	"strings" // Search normalization
	"time"    // Clock

	"finance_portfolio/internal/domain" // Domain models
	"finance_portfolio/internal/utils"  // Cache keys and pagination

	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// ErrNotFound is returned when a transaction does not exist for the requesting user
var ErrNotFound = errors.New("transaction not found")

// BalanceNotifier receives the balance of a user after every recompute
type BalanceNotifier interface {
	NotifyBalance(userID uint, balance decimal.Decimal)
}

// Service owns every write to the transactions table
type Service struct {
	db       *gorm.DB
	rdb      *redis.Client // Optional, nil disables caching
	notifier BalanceNotifier
	now      func() time.Time
}

// NewService builds a ledger service. rdb and notifier may be nil.
func NewService(db *gorm.DB, rdb *redis.Client, notifier BalanceNotifier) *Service {
	return &Service{
		db:       db,
		rdb:      rdb,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TransactionInput carries the user-editable fields of a transaction
type TransactionInput struct {
	Type        string
	Category    string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// Filter narrows a transaction list
type Filter struct {
	Type     string // EXPENSE or INCOME, anything else is ignored
	Category string // Exact category value
	Search   string // Case-insensitive substring of description or category
}

// TransactionPage is one page of a filtered transaction list
type TransactionPage struct {
	Items []domain.Transaction `json:"items"`
	Page  utils.Page           `json:"page"`
}

// Create stores a new transaction and recomputes the owner's balance
func (s *Service) Create(ctx context.Context, userID uint, in TransactionInput) (domain.Transaction, error) {
	t := domain.Transaction{UserID: userID}
	in.apply(&t)

	var balance decimal.Decimal
	var updated bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return err // Return error to rollback
		}
		var err error
		balance, updated, err = Recalculate(tx, userID, true)
		return err
	})
	if err != nil {
		s.logFailure(userID, "create", err)
		return t, fmt.Errorf("create transaction: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":        userID,            // Owner
		"transaction_id": t.ID,              // New row
		"type":           t.Type,            // EXPENSE or INCOME
		"amount":         t.Amount.String(), // Stored amount
	}).Info("Transaction created")
	s.afterWrite(ctx, userID, balance, updated)
	return t, nil
}

// Update replaces the fields of one of the user's transactions
func (s *Service) Update(ctx context.Context, userID, id uint, in TransactionInput) (domain.Transaction, error) {
	var t domain.Transaction
	var balance decimal.Decimal
	var updated bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scoped(tx, userID).First(&t, id).Error; err != nil {
			return err
		}
		in.apply(&t)
		if err := tx.Save(&t).Error; err != nil {
			return err // Return error to rollback
		}
		var err error
		balance, updated, err = Recalculate(tx, userID, true)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return t, ErrNotFound
	}
	if err != nil {
		s.logFailure(userID, "update", err)
		return t, fmt.Errorf("update transaction %d: %w", id, err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":        userID, // Owner
		"transaction_id": t.ID,   // Updated row
	}).Info("Transaction updated")
	s.afterWrite(ctx, userID, balance, updated)
	return t, nil
}

// Delete removes one of the user's transactions
func (s *Service) Delete(ctx context.Context, userID, id uint) error {
	var balance decimal.Decimal
	var updated bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t domain.Transaction
		if err := scoped(tx, userID).First(&t, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&t).Error; err != nil {
			return err // Return error to rollback
		}
		var err error
		balance, updated, err = Recalculate(tx, userID, false)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.logFailure(userID, "delete", err)
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":        userID, // Owner
		"transaction_id": id,     // Deleted row
	}).Info("Transaction deleted")
	s.afterWrite(ctx, userID, balance, updated)
	return nil
}

// Get returns one of the user's transactions
func (s *Service) Get(ctx context.Context, userID, id uint) (domain.Transaction, error) {
	var t domain.Transaction
	err := scoped(s.db.WithContext(ctx), userID).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// List returns one page of the user's transactions matching f, newest first
func (s *Service) List(ctx context.Context, userID uint, f Filter, page, size int) (TransactionPage, error) {
	q := f.apply(scoped(s.db.WithContext(ctx).Model(&domain.Transaction{}), userID)).
		Session(&gorm.Session{}) // Reusable for count and page

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}
	p := utils.NewPage(page, size, total)
	var items []domain.Transaction
	if err := q.Order(domain.TransactionOrder).Offset(p.Offset()).Limit(p.Size).Find(&items).Error; err != nil {
		return TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}
	return TransactionPage{Items: items, Page: p}, nil
}

// Profile returns the user's profile, creating it on first use
func (s *Service) Profile(ctx context.Context, userID uint) (domain.UserProfile, error) {
	return GetOrCreateProfile(s.db.WithContext(ctx), userID)
}

// UpdateBudget sets the user's monthly budget
func (s *Service) UpdateBudget(ctx context.Context, userID uint, budget decimal.Decimal) (domain.UserProfile, error) {
	var profile domain.UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = getOrCreateProfile(tx, userID, true)
		if err != nil {
			return err
		}
		return tx.Model(&profile).Update("monthly_budget", budget.Round(2)).Error
	})
	if err != nil {
		s.logFailure(userID, "update budget", err)
		return profile, fmt.Errorf("update budget: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,          // Owner
		"budget":  budget.String(), // New monthly budget
	}).Info("Monthly budget updated")
	s.invalidate(ctx, userID)
	return profile, nil
}

func (in TransactionInput) apply(t *domain.Transaction) {
	t.Type = in.Type
	t.Category = in.Category
	t.Amount = in.Amount
	t.Description = in.Description
	t.Date = in.Date
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Type == domain.TypeExpense || f.Type == domain.TypeIncome {
		q = q.Where("transaction_type = ?", f.Type)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if strings.TrimSpace(f.Search) != "" {
		like := utils.ContainsPattern(f.Search)
		q = q.Where("LOWER(description) LIKE ? ESCAPE '!' OR LOWER(category) LIKE ? ESCAPE '!'", like, like)
	}
	return q
}

// scoped restricts a query to rows owned by userID
func scoped(q *gorm.DB, userID uint) *gorm.DB {
	return q.Where("user_id = ?", userID)
}

// afterWrite drops the cached dashboard and pushes the new balance
func (s *Service) afterWrite(ctx context.Context, userID uint, balance decimal.Decimal, updated bool) {
	s.invalidate(ctx, userID)
	if updated && s.notifier != nil {
		s.notifier.NotifyBalance(userID, balance)
	}
}

func (s *Service) invalidate(ctx context.Context, userID uint) {
	if err := utils.DeleteCache(ctx, s.rdb, utils.DashboardCacheKey(userID)); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,      // Owner
			"error":   err.Error(), // Redis error
		}).Warn("Dashboard cache invalidation failed")
	}
}

func (s *Service) logFailure(userID uint, op string, err error) {
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,      // Owner
		"operation": op,          // Failed write
		"error":     err.Error(), // Error message
	}).Error("Ledger write failed")
}
