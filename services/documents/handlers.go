package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/middleware"
	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

const downloadURLExpiry = 15 * time.Minute

// handleUploadDocument stores the file in S3 and writes its metadata row.
func handleUploadDocument(db *gorm.DB, store *S3Store, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.BadRequestResponse(c, "Missing file upload")
			return
		}

		clientID := c.PostForm("client_id")
		if clientID != "" {
			var count int64
			db.Model(&models.Client{}).
				Where("id = ? AND workspace_slug = ?", clientID, actor.WorkspaceSlug).
				Count(&count)
			if count == 0 {
				utils.NotFoundResponse(c, "Client not found")
				return
			}
		}

		file, err := fileHeader.Open()
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to read upload")
			return
		}
		defer file.Close()

		doc := models.Document{
			ID:            utils.NewID("doc"),
			WorkspaceSlug: actor.WorkspaceSlug,
			ClientID:      clientID,
			FileName:      fileHeader.Filename,
			ContentType:   fileHeader.Header.Get("Content-Type"),
			Size:          fileHeader.Size,
			UploadedBy:    actor.UserID,
		}
		doc.StorageKey = StorageKey(actor.WorkspaceSlug, doc.ID, doc.FileName)

		if err := store.Upload(doc.StorageKey, doc.ContentType, file); err != nil {
			logrus.Errorf("Failed to upload document %s: %v", doc.ID, err)
			utils.DomainErrorResponse(c, utils.WrapError(utils.KindTransport, "Failed to store document", err))
			return
		}

		if err := db.Create(&doc).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to save document")
			return
		}

		if _, err := recorder.Record(actor, models.ActionDocumentAdded, "document", doc.ID, doc.FileName,
			models.SeverityInfo, fmt.Sprintf("Uploaded %s (%d bytes)", doc.FileName, doc.Size), nil); err != nil {
			logrus.Errorf("Failed to record document upload: %v", err)
		}

		utils.CreatedResponse(c, "Document uploaded successfully", doc)
	}
}

// handleListDocuments returns the workspace's documents, optionally filtered
// by client.
func handleListDocuments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		query := db.Where("workspace_slug = ?", actor.WorkspaceSlug)
		if clientID := c.Query("client_id"); clientID != "" {
			query = query.Where("client_id = ?", clientID)
		}

		var docs []models.Document
		if err := query.Order("created_at DESC").Find(&docs).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch documents")
			return
		}

		utils.OKResponse(c, "Documents retrieved successfully", docs)
	}
}

// handleDownloadDocument returns a presigned URL instead of streaming the
// object through the service.
func handleDownloadDocument(db *gorm.DB, store *S3Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var doc models.Document
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).
			First(&doc).Error; err != nil {
			utils.NotFoundResponse(c, "Document not found")
			return
		}

		url, err := store.PresignedDownloadURL(doc.StorageKey, downloadURLExpiry)
		if err != nil {
			logrus.Errorf("Failed to presign document %s: %v", doc.ID, err)
			utils.DomainErrorResponse(c, utils.WrapError(utils.KindTransport, "Failed to generate download URL", err))
			return
		}

		utils.OKResponse(c, "Download URL generated", gin.H{
			"document_id":  doc.ID,
			"file_name":    doc.FileName,
			"download_url": url,
			"expires_in":   int(downloadURLExpiry.Seconds()),
		})
	}
}

// handleDeleteDocument soft-deletes the metadata row. The object is kept in
// S3 so the audit entry can restore the document.
func handleDeleteDocument(db *gorm.DB, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := middleware.GetUserInfoFromContext(c)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		var doc models.Document
		if err := db.Where("id = ? AND workspace_slug = ?", c.Param("id"), actor.WorkspaceSlug).
			First(&doc).Error; err != nil {
			utils.NotFoundResponse(c, "Document not found")
			return
		}

		if err := db.Delete(&doc).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to delete document")
			return
		}

		if _, err := recorder.Record(actor, models.ActionDocumentDeleted, "document", doc.ID, doc.FileName,
			models.SeverityWarning, fmt.Sprintf("Deleted %s", doc.FileName), doc); err != nil {
			logrus.Errorf("Failed to record document deletion: %v", err)
		}

		utils.OKResponse(c, "Document deleted successfully", nil)
	}
}
