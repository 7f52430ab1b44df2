package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/middleware"
	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// UpdateProfileRequest represents the profile settings update request
type UpdateProfileRequest struct {
	CompanyName   *string `json:"company_name"`
	PrimaryColor  *string `json:"primary_color"`
	SidebarTheme  *string `json:"sidebar_theme"`
	LoginTitle    *string `json:"login_title"`
	LoginSubtitle *string `json:"login_subtitle"`
	LogoURL       *string `json:"logo_url"`
}

// handleGetWorkspace serves the full state bundle for a tenant. A degraded
// bundle still returns 200 with degraded=true and the failing collections
// listed, so clients can show an offline-cache indicator instead of silently
// using stale data.
func handleGetWorkspace(loader *Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		if slug == "" {
			utils.BadRequestResponse(c, "Workspace slug is required")
			return
		}

		bundle, err := loader.Load(slug)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		utils.OKResponse(c, "Workspace loaded", bundle)
	}
}

// handleUpdateProfile applies settings changes to the tenant profile
func handleUpdateProfile(db *gorm.DB, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")

		var profile models.Profile
		if err := db.Where("workspace_slug = ?", slug).First(&profile).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Workspace profile not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch profile")
			}
			return
		}

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.CompanyName != nil {
			profile.CompanyName = *req.CompanyName
		}
		if req.PrimaryColor != nil {
			profile.PrimaryColor = *req.PrimaryColor
		}
		if req.SidebarTheme != nil {
			profile.SidebarTheme = *req.SidebarTheme
		}
		if req.LoginTitle != nil {
			profile.LoginTitle = *req.LoginTitle
		}
		if req.LoginSubtitle != nil {
			profile.LoginSubtitle = *req.LoginSubtitle
		}
		if req.LogoURL != nil {
			profile.LogoURL = *req.LogoURL
		}
		profile.Version++

		if err := db.Save(&profile).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update profile")
			return
		}

		if actor, err := middleware.GetUserInfoFromContext(c); err == nil {
			if _, err := recorder.Record(actor, models.ActionProfileUpdated, "profile", profile.WorkspaceSlug,
				profile.CompanyName, models.SeverityInfo, "workspace settings updated", nil); err != nil {
				logrus.Errorf("Failed to record profile update: %v", err)
			}
		}

		utils.OKResponse(c, "Profile updated successfully", profile)
	}
}
