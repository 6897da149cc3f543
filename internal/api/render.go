package api

import (
	"html/template" // Template functions
	"net/http"      // HTTP status codes
	"net/url"       // Pagination links
	"strconv"       // Id parsing
	"strings"       // Redirect checks
	"time"          // Date formatting

	"finance_portfolio/internal/domain"     // Domain models
	"finance_portfolio/internal/middleware" // Session helpers
	"finance_portfolio/internal/utils"      // Flash messages and pagination

	"github.com/dustin/go-humanize" // Number formatting
	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money amounts
	"github.com/sirupsen/logrus"    // Structured logging
)

// render executes a page template with the data every page needs
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = c.GetString(middleware.UsernameKey)
	data["Flashes"] = utils.PopFlashes(c)
	data["Path"] = c.Request.URL.Path
	c.HTML(status, name, data)
}

// notFound renders the 404 page
func notFound(c *gin.Context) {
	render(c, http.StatusNotFound, "404.html", gin.H{"Title": "Page not found"})
}

// serverError logs err once and renders the 500 page
func serverError(c *gin.Context, op string, err error) {
	userID, _ := middleware.CurrentUserID(c)
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,      // Requesting user
		"operation": op,          // Failed operation
		"error":     err.Error(), // Error message
	}).Error("Request failed")
	_ = c.Error(err)
	render(c, http.StatusInternalServerError, "error.html", gin.H{"Title": "Something went wrong"})
}

// currentUser returns the id set by the session middleware
func currentUser(c *gin.Context) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}

// parseID reads the :id path parameter
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// safeNext accepts only local absolute paths as a post-login target
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}

// Pager holds the links of a paginated list
type Pager struct {
	utils.Page
	PrevURL template.URL
	NextURL template.URL
}

// newPager builds page links that keep the active filters
func newPager(p utils.Page, path string, filters url.Values) Pager {
	link := func(n int) template.URL {
		q := url.Values{}
		for k, v := range filters {
			if len(v) > 0 && v[0] != "" {
				q[k] = v
			}
		}
		q.Set("page", strconv.Itoa(n))
		return template.URL(path + "?" + q.Encode())
	}
	pager := Pager{Page: p}
	if p.HasPrevious() {
		pager.PrevURL = link(p.Previous())
	}
	if p.HasNext() {
		pager.NextURL = link(p.Next())
	}
	return pager
}

// TemplateFuncs are the helpers available to every page
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"currency":      formatCurrency,
		"percentage":    domain.Percentage,
		"budgetStatus":  domain.BudgetStatus,
		"optional":      formatOptional,
		"signed":        isNegative,
		"date":          func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"isoDate":       func(t time.Time) string { return t.Format(DateLayout) },
		"typeLabel":     domain.TransactionTypeLabel,
		"categoryLabel": domain.CategoryLabel,
		"statusLabel":   domain.WatchlistStatusLabel,
		"assetLabel":    domain.AssetTypeLabel,
		"lower":         strings.ToLower,
	}
}

// formatCurrency renders an amount as $1,234.56, or a dash when undefined
func formatCurrency(v any) string {
	var d decimal.Decimal
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case decimal.NullDecimal:
		if !x.Valid {
			return "—"
		}
		d = x.Decimal
	default:
		return "$0.00"
	}
	s := humanize.FormatFloat("#,###.##", d.Abs().Round(2).InexactFloat64())
	if d.Round(2).IsNegative() {
		return "-$" + s
	}
	return "$" + s
}

// formatOptional renders a nullable decimal with fixed places, or a dash
func formatOptional(d decimal.NullDecimal, places int) string {
	if !d.Valid {
		return "—"
	}
	return d.Decimal.StringFixed(int32(places))
}

// isNegative reports whether an amount, defined or not, is below zero
func isNegative(v any) bool {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.IsNegative()
	case decimal.NullDecimal:
		return x.Valid && x.Decimal.IsNegative()
	}
	return false
}
