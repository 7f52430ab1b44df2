package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
)

// snapshotTTL bounds how long a cached workspace bundle may serve as the
// fallback for failed collections.
const snapshotTTL = 24 * time.Hour

// Loader assembles the full per-tenant state bundle. Each collection carries
// a presence flag; collections that fail to load fall back to the cached
// snapshot and the bundle is marked degraded. A monotonic generation per slug
// guarantees a slow load can never overwrite a newer published snapshot.
type Loader struct {
	db *gorm.DB

	mu          sync.Mutex
	generations map[string]uint64
	published   map[string]uint64
}

// NewLoader creates a workspace loader.
func NewLoader(db *gorm.DB) *Loader {
	return &Loader{
		db:          db,
		generations: make(map[string]uint64),
		published:   make(map[string]uint64),
	}
}

// nextGeneration hands out the generation for a new load of the slug.
func (l *Loader) nextGeneration(slug string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generations[slug]++
	return l.generations[slug]
}

// loadCollection fetches one workspace collection. A query error yields an
// unfetched collection instead of failing the whole bundle.
func loadCollection[T any](db *gorm.DB, slug string) models.Collection[T] {
	var items []T
	if err := db.Where("workspace_slug = ?", slug).Find(&items).Error; err != nil {
		logrus.WithError(err).WithField("workspace", slug).Warn("collection load failed")
		return models.Collection[T]{}
	}
	return models.FetchedCollection(items)
}

// Load builds a fresh bundle for the slug, merges it over the cached
// snapshot, and publishes the result unless a newer load finished first.
func (l *Loader) Load(slug string) (models.Bundle, error) {
	var tenant models.Tenant
	if err := l.db.Where("slug = ?", slug).First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.Bundle{}, utils.NotFoundError("workspace not found")
		}
		return models.Bundle{}, utils.WrapError(utils.KindTransport, "failed to resolve workspace", err)
	}

	generation := l.nextGeneration(slug)

	bundle := models.Bundle{
		WorkspaceSlug: slug,
		Generation:    generation,
	}

	var profile models.Profile
	if err := l.db.Where("workspace_slug = ?", slug).First(&profile).Error; err == nil {
		bundle.Profile = &profile
	} else if err != gorm.ErrRecordNotFound {
		bundle.Failed = append(bundle.Failed, "profile")
	}

	bundle.Users = loadCollection[models.User](l.db, slug)
	bundle.Clients = loadCollection[models.Client](l.db, slug)
	bundle.Tasks = loadCollection[models.Task](l.db, slug)
	bundle.Leads = loadCollection[models.Lead](l.db, slug)
	bundle.Pipelines = loadCollection[models.Pipeline](l.db, slug)
	bundle.AuditLogs = l.loadAuditFeed(slug)

	for name, fetched := range map[string]bool{
		"users":      bundle.Users.Fetched,
		"clients":    bundle.Clients.Fetched,
		"tasks":      bundle.Tasks.Fetched,
		"leads":      bundle.Leads.Fetched,
		"pipelines":  bundle.Pipelines.Fetched,
		"audit_logs": bundle.AuditLogs.Fetched,
	} {
		if !fetched {
			bundle.Failed = append(bundle.Failed, name)
		}
	}
	bundle.Degraded = len(bundle.Failed) > 0

	if prev, ok := l.cachedSnapshot(slug); ok {
		bundle = bundle.Merge(prev)
	}

	return l.publish(slug, bundle)
}

// loadAuditFeed fetches the newest audit entries, capped at the feed size.
func (l *Loader) loadAuditFeed(slug string) models.Collection[models.AuditLogEntry] {
	var entries []models.AuditLogEntry
	err := l.db.Where("workspace_slug = ?", slug).
		Order("created_at DESC").
		Limit(1000).
		Find(&entries).Error
	if err != nil {
		logrus.WithError(err).WithField("workspace", slug).Warn("audit feed load failed")
		return models.Collection[models.AuditLogEntry]{}
	}
	return models.FetchedCollection(entries)
}

// cachedSnapshot reads the last published bundle for the slug from Redis.
func (l *Loader) cachedSnapshot(slug string) (models.Bundle, bool) {
	data, err := utils.CacheGet(utils.WorkspaceSnapshotKey(slug))
	if err != nil {
		return models.Bundle{}, false
	}

	var bundle models.Bundle
	if err := json.Unmarshal([]byte(data), &bundle); err != nil {
		return models.Bundle{}, false
	}
	return bundle, true
}

// publish stores the bundle as the current snapshot unless a newer
// generation has already been published for the slug.
func (l *Loader) publish(slug string, bundle models.Bundle) (models.Bundle, error) {
	l.mu.Lock()
	if bundle.Generation < l.published[slug] {
		latest := l.published[slug]
		l.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"workspace": slug,
			"stale":     bundle.Generation,
			"latest":    latest,
		}).Info("discarding stale workspace load")
		if cached, ok := l.cachedSnapshot(slug); ok {
			return cached, nil
		}
		return bundle, nil
	}
	l.published[slug] = bundle.Generation
	l.mu.Unlock()

	if data, err := json.Marshal(bundle); err == nil {
		if err := utils.CacheSet(utils.WorkspaceSnapshotKey(slug), string(data), snapshotTTL); err != nil {
			// Cache failure is non-critical
			logrus.WithError(err).Warn("failed to cache workspace snapshot")
		}
	}

	return bundle, nil
}
