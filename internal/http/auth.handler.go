package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nydv01/chemviz-analytics/internal/appcontext"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
	"github.com/Nydv01/chemviz-analytics/internal/store"
	"github.com/Nydv01/chemviz-analytics/internal/utils"
)

const sessionCookieMaxAge = 24 * 60 * 60

func setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", token, sessionCookieMaxAge, "/", "", false, true)
}

func Login(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
			return
		}

		user, err := ctx.Users.FindByUsername(c.Request.Context(), request.Username)
		if err != nil || !utils.CheckPassword(user.PasswordHash, request.Password) {
			// Same response for unknown user and wrong password.
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password"})
			return
		}

		tokenString, err := utils.GenerateJWT(user.ID.String())
		if err != nil {
			ctx.Logger.Error("Failed to generate JWT token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		setSessionCookie(c, tokenString)
		ctx.Logger.Info("User logged in", zap.String("username", user.Username))

		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"user":    user,
		})
	}
}

func Register(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Username string `json:"username" binding:"required"`
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
			return
		}

		if len(request.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
			return
		}

		hash, err := utils.HashPassword(request.Password)
		if err != nil {
			ctx.Logger.Error("Failed to hash password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}

		user := &entity.User{
			Username:     strings.TrimSpace(request.Username),
			Email:        strings.TrimSpace(request.Email),
			Name:         strings.TrimSpace(request.Name),
			PasswordHash: hash,
		}
		if err := ctx.Users.Create(c.Request.Context(), user); err != nil {
			if errors.Is(err, store.ErrDuplicateUsername) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
				return
			}
			ctx.Logger.Error("Failed to create user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}

		// Auto-login after registration.
		tokenString, err := utils.GenerateJWT(user.ID.String())
		if err != nil {
			ctx.Logger.Error("Failed to generate JWT token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}
		setSessionCookie(c, tokenString)

		ctx.Logger.Info("New user registered", zap.String("username", user.Username))
		c.JSON(http.StatusCreated, gin.H{
			"message": "Registration successful",
			"user":    user,
		})
	}
}

func Logout(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("token", "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
	}
}

func GetUserInfo(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := utils.GetUserIDFromClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get user ID from claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := ctx.Users.FindByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":            user,
			"isAuthenticated": true,
		})
	}
}

func HealthCheck(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Chemical Equipment Parameter Visualizer API",
		})
	}
}
