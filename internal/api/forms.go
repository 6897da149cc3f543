package api

import (
	"errors"  // Error matching
	"fmt"     // Message formatting
	"reflect" // Field tag lookup
	"regexp"  // Username pattern
	"strings" // String manipulation
	"sync"    // One-time validator setup
	"time"    // Date parsing

	"finance_portfolio/internal/domain" // Domain models and enums

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Form binding
	"github.com/go-playground/validator/v10" // Binding validation
	"github.com/shopspring/decimal"          // Money parsing
)

// DateLayout is the wire format of date inputs
const DateLayout = "2006-01-02"

// FieldErrors maps a form field name to its first error message.
// The empty key holds errors that belong to the whole form.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error
func (e FieldErrors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Any reports whether there is at least one error
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

var registerFormNames sync.Once

// bindForm binds the posted form into dst and translates validation failures
func bindForm(c *gin.Context, dst any) FieldErrors {
	registerFormNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			// Report fields by their form names
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				if name := strings.Split(f.Tag.Get("form"), ",")[0]; name != "" && name != "-" {
					return name
				}
				return f.Name
			})
		}
	})

	errs := FieldErrors{}
	err := c.ShouldBindWith(dst, binding.Form)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("", "The submitted form could not be read.")
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), validationMessage(fe))
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	default:
		return "Enter a valid value."
	}
}

// decimalRule describes what a decimal field accepts
type decimalRule struct {
	maxDigits int
	places    int
}

var (
	moneyRule    = decimalRule{maxDigits: 10, places: 2}
	budgetRule   = decimalRule{maxDigits: 12, places: 2}
	quantityRule = decimalRule{maxDigits: 10, places: 4}
)

// parseDecimal parses an optional non-negative decimal. A blank input is null.
func parseDecimal(raw string, rule decimalRule) (decimal.NullDecimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || strings.ContainsAny(raw, "eE") {
		return decimal.NullDecimal{}, "Enter a number."
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, "Ensure this value is greater than or equal to 0."
	}

	digits := len(d.Coefficient().String())
	places := 0
	if exp := int(d.Exponent()); exp < 0 {
		places = -exp
		if places > digits {
			digits = places // Leading zeros after the point
		}
	} else {
		digits += exp
	}
	switch {
	case digits > rule.maxDigits:
		return decimal.NullDecimal{}, fmt.Sprintf("Ensure that there are no more than %d digits in total.", rule.maxDigits)
	case places > rule.places:
		return decimal.NullDecimal{}, fmt.Sprintf("Ensure that there are no more than %d decimal places.", rule.places)
	case digits-places > rule.maxDigits-rule.places:
		return decimal.NullDecimal{}, fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", rule.maxDigits-rule.places)
	}
	return decimal.NewNullDecimal(d), ""
}

// TransactionForm is the add/edit transaction form
type TransactionForm struct {
	Type        string `form:"transaction_type" binding:"required"`
	Category    string `form:"category" binding:"required"`
	Amount      string `form:"amount" binding:"required"`
	Description string `form:"description"`
	Date        string `form:"date" binding:"required"`
}

// NewTransactionForm prefills a form from t, or with today's date for a new transaction
func NewTransactionForm(t *domain.Transaction, today time.Time) TransactionForm {
	if t == nil {
		return TransactionForm{Type: domain.TypeExpense, Category: domain.CategoryOther, Date: today.Format(DateLayout)}
	}
	return TransactionForm{
		Type:        t.Type,
		Category:    t.Category,
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		Date:        t.Date.Format(DateLayout),
	}
}

// clean checks the fields binding cannot and fills the parsed values
func (f TransactionForm) clean(errs FieldErrors) (amount decimal.Decimal, date time.Time) {
	if f.Type != "" && !domain.IsValidTransactionType(f.Type) {
		errs.Add("transaction_type", invalidChoice(f.Type))
	}
	if f.Category != "" && !domain.IsValidCategory(f.Category) {
		errs.Add("category", invalidChoice(f.Category))
	}
	if f.Amount != "" {
		d, msg := parseDecimal(f.Amount, moneyRule)
		switch {
		case msg == "Ensure this value is greater than or equal to 0.":
			errs.Add("amount", "Amount must be greater than zero.")
		case msg != "":
			errs.Add("amount", msg)
		case !d.Decimal.IsPositive():
			errs.Add("amount", "Amount must be greater than zero.")
		default:
			amount = d.Decimal
		}
	}
	if f.Date != "" {
		d, err := time.Parse(DateLayout, strings.TrimSpace(f.Date))
		if err != nil {
			errs.Add("date", "Enter a valid date.")
		}
		date = d
	}
	return amount, date
}

// BudgetForm is the monthly budget form
type BudgetForm struct {
	MonthlyBudget string `form:"monthly_budget" binding:"required"`
}

func (f BudgetForm) clean(errs FieldErrors) decimal.Decimal {
	if f.MonthlyBudget == "" {
		return decimal.Zero
	}
	d, msg := parseDecimal(f.MonthlyBudget, budgetRule)
	if msg != "" {
		errs.Add("monthly_budget", msg)
	}
	return d.Decimal
}

// WatchlistForm is the add/edit watchlist item form
type WatchlistForm struct {
	Symbol        string `form:"symbol" binding:"required"`
	Name          string `form:"name" binding:"max=200"`
	AssetType     string `form:"asset_type" binding:"required"`
	Status        string `form:"status" binding:"required"`
	TargetPrice   string `form:"target_price"`
	CurrentPrice  string `form:"current_price"`
	Quantity      string `form:"quantity"`
	PurchasePrice string `form:"purchase_price"`
	Notes         string `form:"notes"`
}

// NewWatchlistForm prefills a form from item, or with defaults for a new item
func NewWatchlistForm(item *domain.WatchlistItem) WatchlistForm {
	if item == nil {
		return WatchlistForm{AssetType: domain.AssetStock, Status: domain.StatusHold}
	}
	return WatchlistForm{
		Symbol:        item.Symbol,
		Name:          item.Name,
		AssetType:     item.AssetType,
		Status:        item.Status,
		TargetPrice:   formatNull(item.TargetPrice, 2),
		CurrentPrice:  formatNull(item.CurrentPrice, 2),
		Quantity:      item.Quantity.StringFixed(4),
		PurchasePrice: formatNull(item.PurchasePrice, 2),
		Notes:         item.Notes,
	}
}

func (f *WatchlistForm) clean(errs FieldErrors) (target, current, purchase decimal.NullDecimal, quantity decimal.Decimal) {
	f.Symbol = domain.NormalizeSymbol(f.Symbol)
	if f.Symbol == "" {
		errs.Add("symbol", "This field is required.")
	} else if len(f.Symbol) > 10 {
		errs.Add("symbol", "Ensure this value has at most 10 characters.")
	}
	if f.AssetType != "" && !domain.IsValidAssetType(f.AssetType) {
		errs.Add("asset_type", invalidChoice(f.AssetType))
	}
	if f.Status != "" && !domain.IsValidWatchlistStatus(f.Status) {
		errs.Add("status", invalidChoice(f.Status))
	}

	var msg string
	if target, msg = parseDecimal(f.TargetPrice, moneyRule); msg != "" {
		errs.Add("target_price", msg)
	}
	if current, msg = parseDecimal(f.CurrentPrice, moneyRule); msg != "" {
		errs.Add("current_price", msg)
	}
	if purchase, msg = parseDecimal(f.PurchasePrice, moneyRule); msg != "" {
		errs.Add("purchase_price", msg)
	}
	q, msg := parseDecimal(f.Quantity, quantityRule)
	if msg != "" {
		errs.Add("quantity", msg)
	}
	quantity = decimal.Zero
	if q.Valid {
		quantity = q.Decimal
	}
	if quantity.IsPositive() && (!purchase.Valid || purchase.Decimal.IsZero()) {
		errs.Add("purchase_price", "Purchase price is required when quantity is specified.")
	}
	return target, current, purchase, quantity
}

// SignupForm is the account creation form
type SignupForm struct {
	Username  string `form:"username" binding:"required,max=150"`
	FirstName string `form:"first_name" binding:"required,max=150"`
	LastName  string `form:"last_name" binding:"required,max=150"`
	Email     string `form:"email" binding:"required,email,max=254"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func (f *SignupForm) clean(errs FieldErrors) {
	f.Username = strings.ToLower(strings.TrimSpace(f.Username))
	if f.Username != "" && !usernamePattern.MatchString(f.Username) {
		errs.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if f.Password1 != "" {
		if msg := passwordProblem(f.Password1, f.Username); msg != "" {
			errs.Add("password2", msg)
		}
	}
}

// LoginForm is the sign-in form
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

func invalidChoice(v string) string {
	return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", v)
}

func formatNull(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}
