package api

import (
	"errors"   // Error matching
	"fmt"      // Flash messages
	"net/http" // HTTP status codes
	"net/url"  // Filter values
	"strconv"  // Redirect paths

	"finance_portfolio/internal/domain"    // Domain models
	"finance_portfolio/internal/portfolio" // Watchlist service
	"finance_portfolio/internal/quotes"    // Price lookups
	"finance_portfolio/internal/utils"     // Flash messages and pagination

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

const watchlistPath = "/watchlist/"

func watchlistItemPath(id uint) string {
	return watchlistPath + strconv.FormatUint(uint64(id), 10) + "/"
}

// ListWatchlistHandler shows the watchlist with filters, search and portfolio totals
func ListWatchlistHandler(svc *portfolio.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := portfolio.Filter{
			Status:    c.Query("status"),     // BUY, HOLD or SELL
			AssetType: c.Query("asset_type"), // Exact asset type
			Search:    c.Query("search"),     // Free text
		}
		page, size := utils.ParsePage(c.Query("page"), c.Query("page_size"))
		result, err := svc.List(c.Request.Context(), currentUser(c), filter, page, size)
		if err != nil {
			serverError(c, "list watchlist", err)
			return
		}
		filters := url.Values{"status": {filter.Status}, "asset_type": {filter.AssetType}, "search": {filter.Search}}
		if c.Query("page_size") != "" {
			filters.Set("page_size", c.Query("page_size"))
		}
		render(c, http.StatusOK, "watchlist_list.html", gin.H{
			"Title":      "Watchlist",
			"Items":      result.Items,
			"Totals":     result.Totals,
			"Pager":      newPager(result.Page, watchlistPath, filters),
			"Filter":     filter,
			"Statuses":   domain.WatchlistStatuses,
			"AssetTypes": domain.AssetTypes,
		})
	}
}

func renderWatchlistForm(c *gin.Context, status int, title, button string, form WatchlistForm, errs FieldErrors) {
	render(c, status, "watchlist_form.html", gin.H{
		"Title":      title,
		"Button":     button,
		"Form":       form,
		"Errors":     errs,
		"Statuses":   domain.WatchlistStatuses,
		"AssetTypes": domain.AssetTypes,
	})
}

// NewWatchlistPageHandler shows an empty watchlist form
func NewWatchlistPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		renderWatchlistForm(c, http.StatusOK, "Add to Watchlist", "Add to Watchlist", NewWatchlistForm(nil), FieldErrors{})
	}
}

// CreateWatchlistHandler adds a symbol to the watchlist
func CreateWatchlistHandler(svc *portfolio.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form WatchlistForm
		errs := bindForm(c, &form)
		in := form.input(errs)
		if errs.Any() {
			renderWatchlistForm(c, http.StatusUnprocessableEntity, "Add to Watchlist", "Add to Watchlist", form, errs)
			return
		}
		item, err := svc.Create(c.Request.Context(), currentUser(c), in)
		if errors.Is(err, portfolio.ErrDuplicateSymbol) {
			errs.Add("symbol", duplicateSymbolMessage(form.Symbol))
			renderWatchlistForm(c, http.StatusUnprocessableEntity, "Add to Watchlist", "Add to Watchlist", form, errs)
			return
		}
		if err != nil {
			serverError(c, "create watchlist item", err)
			return
		}
		utils.SetFlash(c, utils.FlashSuccess, fmt.Sprintf("Added %s to your watchlist!", item.Symbol))
		c.Redirect(http.StatusFound, watchlistPath)
	}
}

// WatchlistDetailHandler shows one item with its derived metrics
func WatchlistDetailHandler(svc *portfolio.Service, prices *quotes.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := loadWatchlistItem(c, svc)
		if !ok {
			return
		}
		render(c, http.StatusOK, "watchlist_detail.html", gin.H{
			"Title":      item.Symbol,
			"Item":       item,
			"CanRefresh": prices != nil && prices.Enabled(),
			"ItemPath":   watchlistItemPath(item.ID),
		})
	}
}

// EditWatchlistPageHandler shows the edit form of one item
func EditWatchlistPageHandler(svc *portfolio.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := loadWatchlistItem(c, svc)
		if !ok {
			return
		}
		renderWatchlistForm(c, http.StatusOK, "Edit "+item.Symbol, "Update Watchlist Item", NewWatchlistForm(&item), FieldErrors{})
	}
}

// UpdateWatchlistHandler saves an edited item
func UpdateWatchlistHandler(svc *portfolio.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := loadWatchlistItem(c, svc)
		if !ok {
			return
		}
		title := "Edit " + item.Symbol
		var form WatchlistForm
		errs := bindForm(c, &form)
		in := form.input(errs)
		if errs.Any() {
			renderWatchlistForm(c, http.StatusUnprocessableEntity, title, "Update Watchlist Item", form, errs)
			return
		}
		updated, err := svc.Update(c.Request.Context(), currentUser(c), item.ID, in)
		switch {
		case errors.Is(err, portfolio.ErrDuplicateSymbol):
			errs.Add("symbol", duplicateSymbolMessage(form.Symbol))
			renderWatchlistForm(c, http.StatusUnprocessableEntity, title, "Update Watchlist Item", form, errs)
			return
		case err != nil:
			watchlistError(c, "update watchlist item", err)
			return
		}
		utils.SetFlash(c, utils.FlashSuccess, fmt.Sprintf("Updated %s successfully!", updated.Symbol))
		c.Redirect(http.StatusFound, watchlistPath)
	}
}

// DeleteWatchlistPageHandler asks for confirmation before deleting
func DeleteWatchlistPageHandler(svc *portfolio.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := loadWatchlistItem(c, svc)
		if !ok {
			return
		}
		render(c, http.StatusOK, "watchlist_confirm_delete.html", gin.H{"Title": "Remove " + item.Symbol, "Item": item})
	}
}

// DeleteWatchlistHandler removes an item
func DeleteWatchlistHandler(svc *portfolio.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := loadWatchlistItem(c, svc)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), currentUser(c), item.ID); err != nil {
			watchlistError(c, "delete watchlist item", err)
			return
		}
		utils.SetFlash(c, utils.FlashSuccess, fmt.Sprintf("Removed %s from your watchlist!", item.Symbol))
		c.Redirect(http.StatusFound, watchlistPath)
	}
}

// RefreshPriceHandler pulls the latest price of an item's symbol
func RefreshPriceHandler(svc *portfolio.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			notFound(c)
			return
		}
		item, err := svc.RefreshPrice(c.Request.Context(), currentUser(c), id)
		switch {
		case errors.Is(err, portfolio.ErrNotFound):
			notFound(c)
			return
		case errors.Is(err, quotes.ErrDisabled):
			utils.SetFlash(c, utils.FlashError, "Live prices are not configured.")
		case errors.Is(err, quotes.ErrSymbolNotFound):
			utils.SetFlash(c, utils.FlashError, fmt.Sprintf("No price found for %s.", item.Symbol))
		case err != nil:
			logrus.WithFields(logrus.Fields{
				"user_id": currentUser(c), // Owner
				"symbol":  item.Symbol,    // Requested symbol
				"error":   err.Error(),    // Provider error
			}).Warn("Price refresh failed")
			utils.SetFlash(c, utils.FlashError, "Could not fetch the latest price. Try again later.")
		default:
			utils.SetFlash(c, utils.FlashSuccess, fmt.Sprintf("%s price updated to %s.", item.Symbol, formatCurrency(item.CurrentPrice)))
		}
		c.Redirect(http.StatusFound, watchlistItemPath(id))
	}
}

// input validates the form and converts it to service input
func (f *WatchlistForm) input(errs FieldErrors) portfolio.ItemInput {
	target, current, purchase, quantity := f.clean(errs)
	return portfolio.ItemInput{
		Symbol:        f.Symbol,
		Name:          f.Name,
		AssetType:     f.AssetType,
		Status:        f.Status,
		TargetPrice:   target,
		CurrentPrice:  current,
		PurchasePrice: purchase,
		Quantity:      quantity,
		Notes:         f.Notes,
	}
}

func duplicateSymbolMessage(symbol string) string {
	return fmt.Sprintf("%s is already on your watchlist.", symbol)
}

// loadWatchlistItem resolves :id for the current user, rendering 404 when absent
func loadWatchlistItem(c *gin.Context, svc *portfolio.Service) (domain.WatchlistItem, bool) {
	id, ok := parseID(c)
	if !ok {
		notFound(c)
		return domain.WatchlistItem{}, false
	}
	item, err := svc.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		watchlistError(c, "load watchlist item", err)
		return item, false
	}
	return item, true
}

func watchlistError(c *gin.Context, op string, err error) {
	if errors.Is(err, portfolio.ErrNotFound) {
		notFound(c)
		return
	}
	serverError(c, op, err)
}
