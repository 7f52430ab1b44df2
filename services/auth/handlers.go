package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/middleware"
	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// tokenTTL is the access token lifetime
const tokenTTL = 12 * time.Hour

// RegisterRequest bootstraps a new workspace: tenant, profile and admin user
type RegisterRequest struct {
	WorkspaceSlug string `json:"workspace_slug" binding:"required,alphanum|hostname_rfc1123"`
	CompanyName   string `json:"company_name" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	WorkspaceSlug string `json:"workspace_slug" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
}

// InviteUserRequest creates a user inside the caller's workspace
type InviteUserRequest struct {
	Name        string             `json:"name" binding:"required"`
	Email       string             `json:"email" binding:"required,email"`
	Password    string             `json:"password" binding:"required,min=8"`
	Role        models.UserRole    `json:"role" binding:"required,oneof=ADMIN MANAGER USER"`
	Permissions models.Permissions `json:"permissions"`
}

// UpdateUserRequest patches a user's role or permission set
type UpdateUserRequest struct {
	Name        *string             `json:"name"`
	Role        *models.UserRole    `json:"role"`
	Permissions *models.Permissions `json:"permissions"`
	AvatarURL   *string             `json:"avatar_url"`
}

// defaultPermissions returns the permission bit set granted to a role at
// creation time. Admins bypass permission checks entirely.
func defaultPermissions(role models.UserRole) models.Permissions {
	base := models.Permissions{
		"view_clients":     true,
		"view_tasks":       true,
		"view_leads":       true,
		"view_tickets":     true,
		"view_reports":     false,
		"view_documents":   true,
		"edit_clients":     false,
		"edit_tasks":       true,
		"edit_leads":       false,
		"edit_tickets":     true,
		"edit_documents":   true,
		"delete_clients":   false,
		"delete_tasks":     false,
		"delete_leads":     false,
		"delete_documents": false,
		"manage_users":     false,
	}
	if role == models.RoleManager || role == models.RoleAdmin {
		for k := range base {
			base[k] = true
		}
	}
	return base
}

// issueSession signs a token and mirrors the profile into Redis
func issueSession(am *middleware.AuthMiddleware, user *models.User) (string, error) {
	token, err := am.IssueToken(user, tokenTTL)
	if err != nil {
		return "", err
	}

	profile := models.UserProfile{
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		WorkspaceSlug: user.WorkspaceSlug,
	}
	if _, err := utils.CreateTokenSession(token, profile, tokenTTL); err != nil {
		// Session mirror is advisory; the JWT alone stays valid
		return token, nil
	}
	return token, nil
}

// handleRegister bootstraps a workspace with its profile and admin user
func handleRegister(db *gorm.DB, am *middleware.AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		var existing models.Tenant
		if err := db.Where("slug = ?", req.WorkspaceSlug).First(&existing).Error; err == nil {
			utils.BadRequestResponse(c, "Workspace slug already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to hash password")
			return
		}

		user := models.User{
			ID:            utils.NewUserID(),
			WorkspaceSlug: req.WorkspaceSlug,
			Name:          req.Name,
			Email:         req.Email,
			Role:          models.RoleAdmin,
			PasswordHash:  string(hash),
			Permissions:   defaultPermissions(models.RoleAdmin),
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			tenant := models.Tenant{
				ID:       uuid.New(),
				Slug:     req.WorkspaceSlug,
				Name:     req.CompanyName,
				IsActive: true,
			}
			if err := tx.Create(&tenant).Error; err != nil {
				return err
			}

			profile := models.Profile{
				WorkspaceSlug: req.WorkspaceSlug,
				CompanyName:   req.CompanyName,
				PrimaryColor:  "#1e40af",
				SidebarTheme:  "dark",
				LoginTitle:    req.CompanyName,
				Version:       1,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}

			return tx.Create(&user).Error
		})
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to register workspace")
			return
		}

		token, err := issueSession(am, &user)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to issue token")
			return
		}

		utils.CreatedResponse(c, "Workspace registered successfully", gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// handleLogin authenticates a workspace user
func handleLogin(db *gorm.DB, am *middleware.AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		var user models.User
		if err := db.Where("workspace_slug = ? AND email = ?", req.WorkspaceSlug, req.Email).First(&user).Error; err != nil {
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}

		now := time.Now()
		user.LastLoginAt = &now
		if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
			logrus.Errorf("Failed to record last login for %s: %v", user.ID, err)
		}

		token, err := issueSession(am, &user)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to issue token")
			return
		}

		utils.OKResponse(c, "Login successful", gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// handleLogout revokes the Redis session for the presented token
func handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if len(tokenString) > 7 {
			tokenString = tokenString[7:]
		}
		// Best effort: the JWT expires on its own
		_ = utils.RevokeTokenSession(tokenString)
		utils.OKResponse(c, "Logged out", nil)
	}
}

// handleRefresh issues a fresh token for an authenticated caller, picking up
// role changes made since the last issue
func handleRefresh(db *gorm.DB, am *middleware.AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var user models.User
		if err := db.Where("id = ? AND workspace_slug = ?", actor.UserID, actor.WorkspaceSlug).First(&user).Error; err != nil {
			utils.UnauthorizedResponse(c, "User no longer exists")
			return
		}

		token, err := issueSession(am, &user)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to issue token")
			return
		}

		utils.OKResponse(c, "Token refreshed", gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// handleGetUsers lists the caller's workspace users
func handleGetUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _, slug, _ := middleware.GetUserFromContext(c)

		var users []models.User
		if err := db.Where("workspace_slug = ?", slug).Find(&users).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch users")
			return
		}

		utils.OKResponse(c, "Users retrieved successfully", users)
	}
}

// handleInviteUser creates a user inside the caller's workspace
func handleInviteUser(db *gorm.DB, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var req InviteUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format. Role must be ADMIN, MANAGER or USER")
			return
		}

		var existing models.User
		if err := db.Where("workspace_slug = ? AND email = ?", actor.WorkspaceSlug, req.Email).First(&existing).Error; err == nil {
			utils.BadRequestResponse(c, "A user with this email already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to hash password")
			return
		}

		permissions := req.Permissions
		if permissions == nil {
			permissions = defaultPermissions(req.Role)
		}

		user := models.User{
			ID:            utils.NewUserID(),
			WorkspaceSlug: actor.WorkspaceSlug,
			Name:          req.Name,
			Email:         req.Email,
			Role:          req.Role,
			PasswordHash:  string(hash),
			Permissions:   permissions,
		}

		if err := db.Create(&user).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create user")
			return
		}

		if _, err := recorder.Record(actor, models.ActionUserInvited, "user", user.ID, user.Name,
			models.SeverityInfo, "", nil); err != nil {
			logrus.Errorf("Failed to record user invite: %v", err)
		}

		utils.CreatedResponse(c, "User created successfully", user)
	}
}

// handleUpdateUser patches a user's role, permissions or display fields
func handleUpdateUser(db *gorm.DB, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var user models.User
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "User not found in this workspace")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch user")
			}
			return
		}

		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		details := ""
		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Role != nil && *req.Role != user.Role {
			details = "role changed from " + string(user.Role) + " to " + string(*req.Role)
			user.Role = *req.Role
		}
		if req.Permissions != nil {
			if details != "" {
				details += ", "
			}
			details += "permissions updated"
			user.Permissions = *req.Permissions
		}
		if req.AvatarURL != nil {
			user.AvatarURL = *req.AvatarURL
		}

		if err := db.Save(&user).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update user")
			return
		}

		if _, err := recorder.Record(actor, models.ActionUserUpdated, "user", user.ID, user.Name,
			models.SeverityInfo, details, nil); err != nil {
			logrus.Errorf("Failed to record user update: %v", err)
		}

		utils.OKResponse(c, "User updated successfully", user)
	}
}

// handleDeleteUser removes a user from the caller's workspace
func handleDeleteUser(db *gorm.DB, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		if c.Param("id") == actor.UserID {
			utils.BadRequestResponse(c, "You cannot remove your own account")
			return
		}

		var user models.User
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "User not found in this workspace")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch user")
			}
			return
		}

		if err := db.Delete(&user).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to remove user")
			return
		}

		utils.RevokeAllUserSessions(user.ID)
		if _, err := recorder.Record(actor, models.ActionUserRemoved, "user", user.ID, user.Name,
			models.SeverityWarning, "", nil); err != nil {
			logrus.Errorf("Failed to record user removal: %v", err)
		}

		utils.OKResponse(c, "User removed successfully", nil)
	}
}
