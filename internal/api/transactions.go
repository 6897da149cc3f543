package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"net/url"  // Filter values
	"time"     // Default dates

	"finance_portfolio/internal/domain" // Domain models
	"finance_portfolio/internal/ledger" // Transactions and balances
	"finance_portfolio/internal/utils"  // Flash messages and pagination

	"github.com/gin-gonic/gin" // Gin web framework
)

const transactionsPath = "/transactions/"

// DashboardHandler shows the financial overview
func DashboardHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svc.Dashboard(c.Request.Context(), currentUser(c))
		if err != nil {
			serverError(c, "dashboard", err)
			return
		}
		render(c, http.StatusOK, "dashboard.html", gin.H{"Title": "Dashboard", "D": d})
	}
}

// ListTransactionsHandler shows the user's transactions with filters and search
func ListTransactionsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := ledger.Filter{
			Type:     c.Query("type"),     // EXPENSE or INCOME
			Category: c.Query("category"), // Exact category
			Search:   c.Query("search"),   // Free text
		}
		page, size := utils.ParsePage(c.Query("page"), c.Query("page_size"))
		result, err := svc.List(c.Request.Context(), currentUser(c), filter, page, size)
		if err != nil {
			serverError(c, "list transactions", err)
			return
		}
		filters := url.Values{"type": {filter.Type}, "category": {filter.Category}, "search": {filter.Search}}
		if c.Query("page_size") != "" {
			filters.Set("page_size", c.Query("page_size"))
		}
		render(c, http.StatusOK, "transaction_list.html", gin.H{
			"Title":        "Transactions",
			"Transactions": result.Items,
			"Pager":        newPager(result.Page, transactionsPath, filters),
			"Filter":       filter,
			"Types":        domain.TransactionTypes,
			"Categories":   domain.Categories,
		})
	}
}

func renderTransactionForm(c *gin.Context, status int, title, button string, form TransactionForm, errs FieldErrors) {
	render(c, status, "transaction_form.html", gin.H{
		"Title":      title,
		"Button":     button,
		"Form":       form,
		"Errors":     errs,
		"Types":      domain.TransactionTypes,
		"Categories": domain.Categories,
	})
}

// NewTransactionPageHandler shows an empty transaction form
func NewTransactionPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		renderTransactionForm(c, http.StatusOK, "Add New Transaction", "Add Transaction", NewTransactionForm(nil, time.Now().UTC()), FieldErrors{})
	}
}

// CreateTransactionHandler records a transaction
func CreateTransactionHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form TransactionForm
		errs := bindForm(c, &form)
		amount, date := form.clean(errs)
		if errs.Any() {
			renderTransactionForm(c, http.StatusUnprocessableEntity, "Add New Transaction", "Add Transaction", form, errs)
			return
		}
		in := ledger.TransactionInput{Type: form.Type, Category: form.Category, Amount: amount, Description: form.Description, Date: date}
		if _, err := svc.Create(c.Request.Context(), currentUser(c), in); err != nil {
			serverError(c, "create transaction", err)
			return
		}
		utils.SetFlash(c, utils.FlashSuccess, "Transaction added successfully!")
		c.Redirect(http.StatusFound, transactionsPath)
	}
}

// EditTransactionPageHandler shows the edit form of one transaction
func EditTransactionPageHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := loadTransaction(c, svc)
		if !ok {
			return
		}
		renderTransactionForm(c, http.StatusOK, "Edit Transaction", "Update Transaction", NewTransactionForm(&t, time.Time{}), FieldErrors{})
	}
}

// UpdateTransactionHandler saves an edited transaction
func UpdateTransactionHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			notFound(c)
			return
		}
		var form TransactionForm
		errs := bindForm(c, &form)
		amount, date := form.clean(errs)
		if errs.Any() {
			// Ownership is checked before showing any errors
			if _, err := svc.Get(c.Request.Context(), currentUser(c), id); err != nil {
				transactionError(c, "load transaction", err)
				return
			}
			renderTransactionForm(c, http.StatusUnprocessableEntity, "Edit Transaction", "Update Transaction", form, errs)
			return
		}
		in := ledger.TransactionInput{Type: form.Type, Category: form.Category, Amount: amount, Description: form.Description, Date: date}
		if _, err := svc.Update(c.Request.Context(), currentUser(c), id, in); err != nil {
			transactionError(c, "update transaction", err)
			return
		}
		utils.SetFlash(c, utils.FlashSuccess, "Transaction updated successfully!")
		c.Redirect(http.StatusFound, transactionsPath)
	}
}

// DeleteTransactionPageHandler asks for confirmation before deleting
func DeleteTransactionPageHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := loadTransaction(c, svc)
		if !ok {
			return
		}
		render(c, http.StatusOK, "transaction_confirm_delete.html", gin.H{"Title": "Delete Transaction", "Transaction": t})
	}
}

// DeleteTransactionHandler deletes a transaction
func DeleteTransactionHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			notFound(c)
			return
		}
		if err := svc.Delete(c.Request.Context(), currentUser(c), id); err != nil {
			transactionError(c, "delete transaction", err)
			return
		}
		utils.SetFlash(c, utils.FlashSuccess, "Transaction deleted successfully!")
		c.Redirect(http.StatusFound, transactionsPath)
	}
}

// BudgetPageHandler shows the budget form prefilled with the current budget
func BudgetPageHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := svc.Profile(c.Request.Context(), currentUser(c))
		if err != nil {
			serverError(c, "load profile", err)
			return
		}
		form := BudgetForm{MonthlyBudget: profile.MonthlyBudget.StringFixed(2)}
		render(c, http.StatusOK, "budget_update.html", gin.H{"Title": "Update Monthly Budget", "Form": form, "Errors": FieldErrors{}})
	}
}

// UpdateBudgetHandler sets the monthly budget
func UpdateBudgetHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form BudgetForm
		errs := bindForm(c, &form)
		budget := form.clean(errs)
		if errs.Any() {
			render(c, http.StatusUnprocessableEntity, "budget_update.html", gin.H{"Title": "Update Monthly Budget", "Form": form, "Errors": errs})
			return
		}
		if _, err := svc.UpdateBudget(c.Request.Context(), currentUser(c), budget); err != nil {
			serverError(c, "update budget", err)
			return
		}
		utils.SetFlash(c, utils.FlashSuccess, "Budget updated successfully!")
		c.Redirect(http.StatusFound, "/")
	}
}

// loadTransaction resolves :id for the current user, rendering 404 when absent
func loadTransaction(c *gin.Context, svc *ledger.Service) (domain.Transaction, bool) {
	id, ok := parseID(c)
	if !ok {
		notFound(c)
		return domain.Transaction{}, false
	}
	t, err := svc.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		transactionError(c, "load transaction", err)
		return t, false
	}
	return t, true
}

func transactionError(c *gin.Context, op string, err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		notFound(c)
		return
	}
	serverError(c, op, err)
}
