package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Time durations

	"finance_portfolio/internal/domain" // Importing domain models
	"finance_portfolio/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM ORM library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID            uint            `json:"id"`             // User ID
	Username      string          `json:"username"`       // Username
	Email         string          `json:"email"`          // Contact email
	Role          string          `json:"role"`           // User role
	TotalBalance  decimal.Decimal `json:"total_balance"`  // Profile balance
	MonthlyBudget decimal.Decimal `json:"monthly_budget"` // Profile budget
	CreatedAt     time.Time       `json:"created_at"`     // Signup time
}

// userListResponse is one page of users
type userListResponse struct {
	Users  []UserAdminResponse `json:"users"`  // List of users
	Page   utils.Page          `json:"page"`   // Pagination
	Cached bool                `json:"cached"` // Served from cache
}

// transactionListResponse is one page of transactions
type transactionListResponse struct {
	Transactions []domain.Transaction `json:"transactions"` // List of transactions
	Page         utils.Page           `json:"page"`         // Pagination
	Cached       bool                 `json:"cached"`       // Served from cache
}

// adminCacheKey builds a cache key from the listed query params
func adminCacheKey(c *gin.Context, prefix string, params ...string) string {
	var keyParts []string // Parts of the cache key
	// Append each query parameter to the key parts
	for _, k := range params {
		keyParts = append(keyParts, k+"="+c.Query(k)) // Append key-value pair
	}
	return prefix + strings.Join(keyParts, ":")
}

// ListUsersHandler returns all users with their profile figures
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Create a cache key based on search and pagination parameters
		cacheKey := adminCacheKey(c, "admin:users:", "search", "page", "page_size")
		var cached userListResponse
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		page, pageSize := utils.ParsePage(c.Query("page"), c.Query("page_size"))
		query := db.WithContext(ctx).Model(&domain.User{}) // Start building the query
		if search := c.Query("search"); strings.TrimSpace(search) != "" {
			like := utils.ContainsPattern(search)
			query = query.Where("LOWER(username) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!'", like, like) // Filter by username or email
		}
		query = query.Session(&gorm.Session{})
		var total int64 // Total user count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"}) // Return on error
			return
		}
		p := utils.NewPage(page, pageSize, total)
		var users []domain.User // Slice to hold users
		// Preload Profile relation, apply offset and limit for pagination
		if err := query.Preload("Profile").Order("id").Offset(p.Offset()).Limit(p.Size).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"}) // Return on error
			return
		}
		// Map users to response format
		resp := userListResponse{Users: make([]UserAdminResponse, len(users)), Page: p}
		for i, u := range users {
			resp.Users[i] = UserAdminResponse{
				ID:        u.ID,        // User ID
				Username:  u.Username,  // Username
				Email:     u.Email,     // Contact email
				Role:      u.Role,      // User role
				CreatedAt: u.CreatedAt, // Signup time
			}
			if u.Profile != nil {
				resp.Users[i].TotalBalance = u.Profile.TotalBalance
				resp.Users[i].MonthlyBudget = u.Profile.MonthlyBudget
			}
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.DefaultCacheTTL)
		c.JSON(http.StatusOK, resp) // Return the response
	}
}

// ListAllTransactionsHandler returns all transactions, with optional filtering by user, type, category or date
func ListAllTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Build cache key from all query params
		cacheKey := adminCacheKey(c, "admin:txs:", "user_id", "type", "category", "from", "to", "page", "page_size")
		var cached transactionListResponse
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		page, pageSize := utils.ParsePage(c.Query("page"), c.Query("page_size"))
		query := db.WithContext(ctx).Model(&domain.Transaction{}) // Start building the query
		if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID) // Filter by user ID
		}
		if txType := c.Query("type"); txType != "" {
			query = query.Where("transaction_type = ?", txType) // Filter by transaction type
		}
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category) // Filter by category
		}
		for param, cond := range map[string]string{"from": "date >= ?", "to": "date <= ?"} {
			raw := c.Query(param)
			if raw == "" {
				continue
			}
			day, err := time.Parse(DateLayout, raw)
			if err != nil {
				// If the date is malformed, return bad request
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param + " date, expected YYYY-MM-DD"})
				return
			}
			query = query.Where(cond, day) // Filter by date bound
		}
		query = query.Session(&gorm.Session{})
		var total int64 // Total transaction count
		// Get total count of transactions matching the filters
		if err := query.Count(&total).Error; err != nil {
			// If error occurs, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		p := utils.NewPage(page, pageSize, total)
		txs := []domain.Transaction{} // Slice to hold transactions
		// Fetch paginated transactions with filters applied
		if err := query.Order(domain.TransactionOrder).Offset(p.Offset()).Limit(p.Size).Find(&txs).Error; err != nil {
			// If error occurs, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		resp := transactionListResponse{Transactions: txs, Page: p}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.DefaultCacheTTL)
		c.JSON(http.StatusOK, resp) // Return the response
	}
}
