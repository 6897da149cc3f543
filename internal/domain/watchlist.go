package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Watchlist statuses
const (
	StatusBuy  = "BUY"
	StatusHold = "HOLD"
	StatusSell = "SELL"
)

// Asset types
const (
	AssetStock      = "STOCK"
	AssetETF        = "ETF"
	AssetCrypto     = "CRYPTO"
	AssetMutualFund = "MUTUAL_FUND"
	AssetBond       = "BOND"
	AssetOther      = "OTHER"
)

// WatchlistStatuses lists the valid statuses in display order
var WatchlistStatuses = []Choice{
	{StatusBuy, "Buy"},
	{StatusHold, "Hold"},
	{StatusSell, "Sell"},
}

// AssetTypes lists the valid asset types in display order
var AssetTypes = []Choice{
	{AssetStock, "Stock"},
	{AssetETF, "ETF"},
	{AssetCrypto, "Cryptocurrency"},
	{AssetMutualFund, "Mutual Fund"},
	{AssetBond, "Bond"},
	{AssetOther, "Other"},
}

// WatchlistItem Model
type WatchlistItem struct {
	ID            uint                `gorm:"primaryKey" json:"id"`                                                                // Primary key
	UserID        uint                `gorm:"not null;uniqueIndex:idx_watchlist_user_symbol;index:idx_watchlist_user_status" json:"user_id"` // Owner
	Symbol        string              `gorm:"size:10;not null;uniqueIndex:idx_watchlist_user_symbol" json:"symbol"`               // Ticker, uppercased
	Name          string              `gorm:"size:200" json:"name"`                                                                // Company or asset name
	AssetType     string              `gorm:"size:20;not null;default:STOCK" json:"asset_type"`                                    // One of AssetTypes
	Status        string              `gorm:"size:10;not null;default:HOLD;index:idx_watchlist_user_status" json:"status"`         // BUY, HOLD or SELL
	TargetPrice   decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"target_price"`                                              // Optional price target
	CurrentPrice  decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"current_price"`                                             // Latest known price
	Quantity      decimal.Decimal     `gorm:"type:decimal(10,4);not null;default:0" json:"quantity"`                               // Units held
	PurchasePrice decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"purchase_price"`                                            // Price paid per unit
	Notes         string              `gorm:"type:text" json:"notes"`                                                              // Investment thesis or notes
	CreatedAt     time.Time           `json:"created_at"`                                                                          // Creation time
	UpdatedAt     time.Time           `json:"updated_at"`                                                                          // Last update time
}

// TableName keeps the table name stable regardless of the struct name
func (WatchlistItem) TableName() string {
	return "watchlist_items"
}

// WatchlistOrder is the default ordering: newest first
const WatchlistOrder = "created_at desc, id desc"

// BeforeSave normalizes the symbol
func (w *WatchlistItem) BeforeSave(tx *gorm.DB) error {
	w.Symbol = NormalizeSymbol(w.Symbol)
	return nil
}

// NormalizeSymbol trims and uppercases a ticker symbol
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// present treats a null or zero operand as missing
func present(d decimal.NullDecimal) bool {
	return d.Valid && !d.Decimal.IsZero()
}

// undefined is the result for a metric with a missing operand
var undefined = decimal.NullDecimal{}

func defined(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// GainLoss is (current - purchase) * quantity
func (w WatchlistItem) GainLoss() decimal.NullDecimal {
	if w.Quantity.IsZero() || !present(w.PurchasePrice) || !present(w.CurrentPrice) {
		return undefined
	}
	return defined(w.CurrentPrice.Decimal.Sub(w.PurchasePrice.Decimal).Mul(w.Quantity))
}

// GainLossPercentage is (current - purchase) / purchase * 100
func (w WatchlistItem) GainLossPercentage() decimal.NullDecimal {
	if !present(w.PurchasePrice) || !present(w.CurrentPrice) || !w.PurchasePrice.Decimal.IsPositive() {
		return undefined
	}
	diff := w.CurrentPrice.Decimal.Sub(w.PurchasePrice.Decimal)
	return defined(diff.Div(w.PurchasePrice.Decimal).Mul(hundred))
}

// TotalValue is quantity * current
func (w WatchlistItem) TotalValue() decimal.NullDecimal {
	if w.Quantity.IsZero() || !present(w.CurrentPrice) {
		return undefined
	}
	return defined(w.Quantity.Mul(w.CurrentPrice.Decimal))
}

// TotalCost is quantity * purchase
func (w WatchlistItem) TotalCost() decimal.NullDecimal {
	if w.Quantity.IsZero() || !present(w.PurchasePrice) {
		return undefined
	}
	return defined(w.Quantity.Mul(w.PurchasePrice.Decimal))
}

// StatusLabel returns the display label of the status
func (w WatchlistItem) StatusLabel() string {
	return WatchlistStatusLabel(w.Status)
}

// AssetTypeLabel returns the display label of the asset type
func (w WatchlistItem) AssetTypeLabel() string {
	return AssetTypeLabel(w.AssetType)
}

// IsValidWatchlistStatus reports whether v is BUY, HOLD or SELL
func IsValidWatchlistStatus(v string) bool {
	return hasValue(WatchlistStatuses, v)
}

// IsValidAssetType reports whether v is a known asset type
func IsValidAssetType(v string) bool {
	return hasValue(AssetTypes, v)
}

// WatchlistStatusLabel maps a status value to its label
func WatchlistStatusLabel(v string) string {
	return labelOf(WatchlistStatuses, v)
}

// AssetTypeLabel maps an asset type value to its label
func AssetTypeLabel(v string) string {
	return labelOf(AssetTypes, v)
}
