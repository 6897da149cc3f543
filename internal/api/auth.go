package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Session lifetime

	"finance_portfolio/internal/domain"     // Importing domain models
	"finance_portfolio/internal/middleware" // Session cookies
	"finance_portfolio/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

var errUsernameTaken = errors.New("username taken")

// AuthConfig carries what the login flow needs from the configuration
type AuthConfig struct {
	Secret     string        // Session signing key
	SessionTTL time.Duration // Session lifetime
	Secure     bool          // Send cookies over HTTPS only
}

// SignupPageHandler shows the account creation form
func SignupPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, http.StatusOK, "signup.html", gin.H{"Title": "Sign Up", "Form": SignupForm{}, "Errors": FieldErrors{}})
	}
}

// SignupHandler creates a user and their profile
func SignupHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form SignupForm // Bind form request to struct
		errs := bindForm(c, &form)
		form.clean(errs)
		if errs.Any() {
			// If invalid, show the form again
			render(c, http.StatusUnprocessableEntity, "signup.html", gin.H{"Title": "Sign Up", "Form": form, "Errors": errs})
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), bcrypt.DefaultCost)
		if err != nil {
			serverError(c, "hash password", err)
			return
		}
		user := domain.User{
			Username:  form.Username, // Lowercased to keep usernames unique
			Email:     strings.TrimSpace(form.Email),
			FirstName: strings.TrimSpace(form.FirstName),
			LastName:  strings.TrimSpace(form.LastName),
			Password:  string(hash),
			Role:      domain.RoleUser,
		}
		// The user and the profile exist together or not at all
		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&domain.User{}).Where("LOWER(username) = ?", user.Username).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errUsernameTaken
			}
			if err := tx.Create(&user).Error; err != nil {
				return err // Return error to rollback
			}
			profile := domain.NewProfile(user.ID)
			return tx.Create(&profile).Error
		})
		if errors.Is(err, errUsernameTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
			errs.Add("username", "A user with that username already exists.")
			render(c, http.StatusUnprocessableEntity, "signup.html", gin.H{"Title": "Sign Up", "Form": form, "Errors": errs})
			return
		}
		if err != nil {
			serverError(c, "signup", err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // New user
			"username": user.Username, // Chosen username
		}).Info("User registered")
		utils.SetFlash(c, utils.FlashSuccess, "Account created successfully! Please log in.")
		c.Redirect(http.StatusFound, middleware.LoginPath)
	}
}

// LoginPageHandler shows the sign-in form
func LoginPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.CurrentUserID(c); ok {
			c.Redirect(http.StatusFound, safeNext(c.Query("next")))
			return
		}
		form := LoginForm{Next: c.Query("next")}
		render(c, http.StatusOK, "login.html", gin.H{"Title": "Log In", "Form": form, "Errors": FieldErrors{}})
	}
}

// LoginHandler authenticates a user and starts a cookie session
func LoginHandler(db *gorm.DB, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form LoginForm // Bind form request to struct
		errs := bindForm(c, &form)
		if errs.Any() {
			render(c, http.StatusUnprocessableEntity, "login.html", gin.H{"Title": "Log In", "Form": form, "Errors": errs})
			return
		}
		var user domain.User // Fetch user from database
		err := db.WithContext(c.Request.Context()).
			Where("username = ?", strings.ToLower(strings.TrimSpace(form.Username))).
			First(&user).Error
		if err == nil {
			// Compare provided password with stored hash
			err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password))
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			serverError(c, "login", err)
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"username":  form.Username, // Attempted username
				"client_ip": c.ClientIP(),  // Caller address
			}).Warn("Failed login")
			errs.Add("", "Please enter a correct username and password. Note that both fields may be case-sensitive.")
			form.Password = ""
			render(c, http.StatusUnprocessableEntity, "login.html", gin.H{"Title": "Log In", "Form": form, "Errors": errs})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Username, cfg.Secret, cfg.SessionTTL)
		if err != nil {
			serverError(c, "generate session", err)
			return
		}
		middleware.SetSession(c, token, cfg.SessionTTL, cfg.Secure)
		logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("User logged in")
		c.Redirect(http.StatusFound, safeNext(form.Next))
	}
}

// LogoutHandler ends the session
func LogoutHandler(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSession(c, cfg.Secure)
		c.Redirect(http.StatusFound, middleware.LoginPath)
	}
}
