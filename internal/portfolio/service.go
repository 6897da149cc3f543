// Package portfolio manages the investment watchlist of each user.
package portfolio

import (
	"context" // Request scoped cancellation
	"errors"  // Sentinel errors
	"fmt"     // Error wrapping
	"strings" // Search normalization

	"finance_portfolio/internal/domain" // Domain models
	"finance_portfolio/internal/utils"  // Pagination

	"github.com/shopspring/decimal" // Prices and quantities
	"github.com/sirupsen/logrus"    // Structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

var (
	// ErrNotFound is returned when an item does not exist for the requesting user
	ErrNotFound = errors.New("watchlist item not found")
	// ErrDuplicateSymbol is returned when the user already watches the symbol
	ErrDuplicateSymbol = errors.New("symbol already on watchlist")
)

// PriceSource looks up the latest traded price of a symbol
type PriceSource interface {
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Service owns every read and write of watchlist items
type Service struct {
	db     *gorm.DB
	prices PriceSource
}

// NewService builds a watchlist service backed by db and prices
func NewService(db *gorm.DB, prices PriceSource) *Service {
	return &Service{db: db, prices: prices}
}

// ItemInput carries the user-editable fields of a watchlist item
type ItemInput struct {
	Symbol        string
	Name          string
	AssetType     string
	Status        string
	TargetPrice   decimal.NullDecimal
	CurrentPrice  decimal.NullDecimal
	PurchasePrice decimal.NullDecimal
	Quantity      decimal.Decimal
	Notes         string
}

// Filter narrows a watchlist
type Filter struct {
	Status    string // BUY, HOLD or SELL, anything else is ignored
	AssetType string // Exact asset type value
	Search    string // Case-insensitive substring of symbol, name or notes
}

// ListResult is one page of a filtered watchlist with totals over every held item
type ListResult struct {
	Items  []domain.WatchlistItem `json:"items"`
	Page   utils.Page             `json:"page"`
	Totals domain.PortfolioTotals `json:"totals"`
}

// List returns one page of the user's items matching f, newest first.
// Totals ignore the filter and cover everything the user holds.
func (s *Service) List(ctx context.Context, userID uint, f Filter, page, size int) (ListResult, error) {
	db := s.db.WithContext(ctx)
	q := f.apply(scoped(db.Model(&domain.WatchlistItem{}), userID)).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListResult{}, fmt.Errorf("count watchlist: %w", err)
	}
	p := utils.NewPage(page, size, total)
	var items []domain.WatchlistItem
	if err := q.Order(domain.WatchlistOrder).Offset(p.Offset()).Limit(p.Size).Find(&items).Error; err != nil {
		return ListResult{}, fmt.Errorf("list watchlist: %w", err)
	}

	var held []domain.WatchlistItem
	if err := scoped(db, userID).Where("quantity > 0").Find(&held).Error; err != nil {
		return ListResult{}, fmt.Errorf("load held positions: %w", err)
	}
	return ListResult{Items: items, Page: p, Totals: domain.ComputePortfolioTotals(held)}, nil
}

// Get returns one of the user's items
func (s *Service) Get(ctx context.Context, userID, id uint) (domain.WatchlistItem, error) {
	var item domain.WatchlistItem
	err := scoped(s.db.WithContext(ctx), userID).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, ErrNotFound
	}
	if err != nil {
		return item, fmt.Errorf("get watchlist item %d: %w", id, err)
	}
	return item, nil
}

// Create adds a symbol to the user's watchlist
func (s *Service) Create(ctx context.Context, userID uint, in ItemInput) (domain.WatchlistItem, error) {
	item := domain.WatchlistItem{UserID: userID}
	in.apply(&item)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, userID, item.Symbol, 0); err != nil {
			return err
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return item, s.writeError(userID, "create", item.Symbol, err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,      // Owner
		"item_id": item.ID,     // New row
		"symbol":  item.Symbol, // Watched symbol
	}).Info("Watchlist item created")
	return item, nil
}

// Update replaces the fields of one of the user's items
func (s *Service) Update(ctx context.Context, userID, id uint, in ItemInput) (domain.WatchlistItem, error) {
	var item domain.WatchlistItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scoped(tx, userID).First(&item, id).Error; err != nil {
			return err
		}
		in.apply(&item)
		if err := checkUnique(tx, userID, item.Symbol, item.ID); err != nil {
			return err
		}
		return tx.Save(&item).Error
	})
	if err != nil {
		return item, s.writeError(userID, "update", item.Symbol, err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,  // Owner
		"item_id": item.ID, // Updated row
	}).Info("Watchlist item updated")
	return item, nil
}

// Delete removes one of the user's items
func (s *Service) Delete(ctx context.Context, userID, id uint) error {
	res := scoped(s.db.WithContext(ctx), userID).Delete(&domain.WatchlistItem{}, id)
	if res.Error != nil {
		return s.writeError(userID, "delete", "", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID, // Owner
		"item_id": id,     // Deleted row
	}).Info("Watchlist item deleted")
	return nil
}

// RefreshPrice stores the latest price of the item's symbol as its current price
func (s *Service) RefreshPrice(ctx context.Context, userID, id uint) (domain.WatchlistItem, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return item, err
	}
	price, err := s.prices.LatestPrice(ctx, item.Symbol)
	if err != nil {
		return item, fmt.Errorf("refresh %s: %w", item.Symbol, err)
	}
	item.CurrentPrice = decimal.NewNullDecimal(price.Round(2))
	if err := s.db.WithContext(ctx).Model(&item).Update("current_price", item.CurrentPrice).Error; err != nil {
		return item, s.writeError(userID, "refresh", item.Symbol, err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,                             // Owner
		"symbol":  item.Symbol,                        // Refreshed symbol
		"price":   item.CurrentPrice.Decimal.String(), // New current price
	}).Info("Watchlist price refreshed")
	return item, nil
}

// checkUnique rejects a symbol the user already watches under another item
func checkUnique(tx *gorm.DB, userID uint, symbol string, exceptID uint) error {
	var count int64
	q := scoped(tx.Model(&domain.WatchlistItem{}), userID).Where("symbol = ?", symbol)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateSymbol
	}
	return nil
}

func (s *Service) writeError(userID uint, op, symbol string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrDuplicateSymbol), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateSymbol
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,      // Owner
		"operation": op,          // Failed write
		"symbol":    symbol,      // Affected symbol
		"error":     err.Error(), // Error message
	}).Error("Watchlist write failed")
	return fmt.Errorf("%s watchlist item: %w", op, err)
}

func (in ItemInput) apply(item *domain.WatchlistItem) {
	item.Symbol = domain.NormalizeSymbol(in.Symbol)
	item.Name = strings.TrimSpace(in.Name)
	item.AssetType = in.AssetType
	item.Status = in.Status
	item.TargetPrice = in.TargetPrice
	item.CurrentPrice = in.CurrentPrice
	item.PurchasePrice = in.PurchasePrice
	item.Quantity = in.Quantity
	item.Notes = in.Notes
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if domain.IsValidWatchlistStatus(f.Status) {
		q = q.Where("status = ?", f.Status)
	}
	if f.AssetType != "" {
		q = q.Where("asset_type = ?", f.AssetType)
	}
	if strings.TrimSpace(f.Search) != "" {
		like := utils.ContainsPattern(f.Search)
		q = q.Where("LOWER(symbol) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!' OR LOWER(notes) LIKE ? ESCAPE '!'", like, like, like)
	}
	return q
}

// scoped restricts a query to rows owned by userID
func scoped(q *gorm.DB, userID uint) *gorm.DB {
	return q.Where("user_id = ?", userID)
}
