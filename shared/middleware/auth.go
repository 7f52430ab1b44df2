package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// AuthMiddleware validates workspace JWTs and enforces role and permission
// guards on behalf of every service.
type AuthMiddleware struct {
	secret []byte
	db     *gorm.DB
}

// WorkspaceClaims are the custom claims carried by a workspace access token
type WorkspaceClaims struct {
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Role          models.UserRole `json:"role"`
	WorkspaceSlug string          `json:"workspace_slug"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware creates a new authentication middleware. The db handle is
// used for permission lookups; pass nil for services that only need
// role-level guards.
func NewAuthMiddleware(db *gorm.DB) (*AuthMiddleware, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	return &AuthMiddleware{
		secret: []byte(secret),
		db:     db,
	}, nil
}

// IssueToken signs an access token for a workspace user.
func (am *AuthMiddleware) IssueToken(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := WorkspaceClaims{
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		WorkspaceSlug: user.WorkspaceSlug,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "contabilflow",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(am.secret)
}

// ParseToken validates a token string and returns its claims.
func (am *AuthMiddleware) ParseToken(tokenString string) (*WorkspaceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &WorkspaceClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*WorkspaceClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// RequireAuth middleware validates JWT tokens
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := am.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("name", claims.Name)
		c.Set("email", claims.Email)
		c.Set("workspace_slug", claims.WorkspaceSlug)
		c.Set("role", string(claims.Role))

		c.Next()
	}
}

// roleRank orders roles for the coarse role guard
func roleRank(role models.UserRole) int {
	switch role {
	case models.RoleAdmin:
		return 3
	case models.RoleManager:
		return 2
	case models.RoleUser:
		return 1
	}
	return 0
}

// RequireRole middleware validates that the user holds at least the required
// role.
func (am *AuthMiddleware) RequireRole(required models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found in context"})
			c.Abort()
			return
		}

		if roleRank(models.UserRole(role.(string))) < roleRank(required) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequirePermission middleware checks the user's permission bit set. Admins
// pass unconditionally; other roles are looked up in the tenant store.
func (am *AuthMiddleware) RequirePermission(flag string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if models.UserRole(role.(string)) == models.RoleAdmin {
			c.Next()
			return
		}

		userID, exists := c.Get("user_id")
		if !exists || am.db == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
			c.Abort()
			return
		}

		var user models.User
		if err := am.db.Where("id = ?", userID).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		if !user.Permissions.Has(flag) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied: " + flag})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireWorkspaceAccess middleware ensures the token's workspace matches the
// :slug route parameter.
func (am *AuthMiddleware) RequireWorkspaceAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		tokenSlug, exists := c.Get("workspace_slug")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Workspace not found in context"})
			c.Abort()
			return
		}

		if slug != "" && slug != tokenSlug.(string) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access to this workspace is denied"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractToken extracts the bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if bearerToken == "" {
		return ""
	}

	parts := strings.SplitN(bearerToken, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return bearerToken
}

// GetUserFromContext extracts user information from the Gin context
func GetUserFromContext(c *gin.Context) (userID, email, workspaceSlug, role string) {
	if v, exists := c.Get("user_id"); exists {
		userID = v.(string)
	}
	if v, exists := c.Get("email"); exists {
		email = v.(string)
	}
	if v, exists := c.Get("workspace_slug"); exists {
		workspaceSlug = v.(string)
	}
	if v, exists := c.Get("role"); exists {
		role = v.(string)
	}
	return
}

// GetUserInfoFromContext builds a UserInfo from the Gin context. Returns a
// typed unauthorized error when no actor is present.
func GetUserInfoFromContext(c *gin.Context) (*models.UserInfo, error) {
	userID, email, slug, role := GetUserFromContext(c)
	if userID == "" {
		return nil, utils.NewError(utils.KindUnauthorized, "no authenticated user in context")
	}

	name := ""
	if v, exists := c.Get("name"); exists {
		name = v.(string)
	}

	return &models.UserInfo{
		UserID:        userID,
		Name:          name,
		Email:         email,
		Role:          models.UserRole(role),
		WorkspaceSlug: slug,
	}, nil
}
