// Package ledger records income and expense transactions and keeps each
// user's profile balance equal to income minus expenses.
package ledger

import (
	"errors" // Error matching
	"fmt"    // Error wrapping

	"finance_portfolio/internal/domain" // Domain models

	"github.com/shopspring/decimal" // Money arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking
)

// forUpdate locks the selected rows on databases that support it.
// SQLite serializes writers itself and has no FOR UPDATE.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// findProfile loads the profile of userID, locking its row when lock is set
func findProfile(tx *gorm.DB, userID uint, lock bool) (domain.UserProfile, error) {
	var profile domain.UserProfile
	q := tx.Where("user_id = ?", userID)
	if lock {
		q = forUpdate(q)
	}
	err := q.First(&profile).Error
	return profile, err
}

// GetOrCreateProfile returns the user's profile, creating one with the
// default budget when it does not exist yet
func GetOrCreateProfile(tx *gorm.DB, userID uint) (domain.UserProfile, error) {
	return getOrCreateProfile(tx, userID, false)
}

func getOrCreateProfile(tx *gorm.DB, userID uint, lock bool) (domain.UserProfile, error) {
	profile, err := findProfile(tx, userID, lock)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return profile, fmt.Errorf("load profile: %w", err)
	}
	profile = domain.NewProfile(userID)
	// The savepoint keeps tx usable when another request created the profile first
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&profile).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if profile, err = findProfile(tx, userID, lock); err != nil {
			return profile, fmt.Errorf("reload profile: %w", err)
		}
		return profile, nil
	}
	if err != nil {
		return profile, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// SumBalance is the sum of income amounts minus the sum of expense amounts
func SumBalance(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := tx.Model(&domain.Transaction{}).
		Select("SUM(CASE WHEN transaction_type = ? THEN amount ELSE -amount END)", domain.TypeIncome).
		Where("user_id = ?", userID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum balance: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil // No transactions yet
	}
	return total.Decimal.Round(2), nil
}

// Recalculate recomputes and stores the balance of userID. It must run in
// the same database transaction as the write that changed the ledger.
// With createProfile unset a missing profile is left alone and reported
// through the second return value.
func Recalculate(tx *gorm.DB, userID uint, createProfile bool) (decimal.Decimal, bool, error) {
	var profile domain.UserProfile
	if createProfile {
		p, err := getOrCreateProfile(tx, userID, true)
		if err != nil {
			return decimal.Zero, false, err
		}
		profile = p
	} else {
		p, err := findProfile(tx, userID, true)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithFields(logrus.Fields{
				"user_id": userID, // Owner of the deleted row
			}).Warn("Balance recompute skipped: user has no profile")
			return decimal.Zero, false, nil
		}
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("load profile: %w", err)
		}
		profile = p
	}

	balance, err := SumBalance(tx, userID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if err := tx.Model(&profile).Update("total_balance", balance).Error; err != nil {
		return decimal.Zero, false, fmt.Errorf("store balance: %w", err)
	}
	return balance, true, nil
}
