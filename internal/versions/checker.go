// Package versions tracks upstream game-server releases: a background
// checker fetches the release manifest, compares it against the installed
// version, and caches the result for the API and CLI.
package versions

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/craftpanel/craftpanel-go/internal/storage"
)

const (
	// DefaultCheckInterval is the default interval between manifest checks.
	DefaultCheckInterval = 4 * time.Hour

	// EnvDisableVersionCheck disables all manifest checks when set to "true".
	EnvDisableVersionCheck = "CRAFTPANEL_DISABLE_VERSION_CHECK"
)

// Manifest is the parsed upstream release list, newest first.
type Manifest struct {
	Project  string
	Versions []string
	Latest   string
}

// VersionInfo is the cached check result.
type VersionInfo struct {
	CurrentVersion  string     `json:"current_version"`
	LatestVersion   string     `json:"latest_version,omitempty"`
	UpdateAvailable bool       `json:"update_available"`
	Versions        []string   `json:"versions,omitempty"`
	CheckedAt       *time.Time `json:"checked_at,omitempty"`
	CheckError      string     `json:"check_error,omitempty"`
}

// Checker performs background release checks against the manifest endpoint.
type Checker struct {
	logger        *zap.Logger
	version       string // installed game server version
	checkInterval time.Duration
	db            *storage.BoltDB

	mu          sync.RWMutex
	versionInfo *VersionInfo

	// For testing: allows injection of a custom check function
	checkFunc func(ctx context.Context) (*Manifest, error)
}

// New creates a release checker. db may be nil; the manifest cache is then
// kept in memory only.
func New(logger *zap.Logger, version, manifestURL string, interval time.Duration, db *storage.BoltDB) *Checker {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	client := NewManifestClient(manifestURL, logger)

	c := &Checker{
		logger:        logger,
		version:       version,
		checkInterval: interval,
		db:            db,
		versionInfo: &VersionInfo{
			CurrentVersion: version,
		},
	}
	c.checkFunc = client.Fetch

	// Seed from the persisted cache so the API answers before the first
	// network check completes.
	if db != nil {
		if cached, err := db.GetVersionManifest(); err == nil && cached != nil {
			c.applyManifest(&Manifest{
				Project:  cached.Project,
				Versions: cached.Versions,
				Latest:   cached.Latest,
			}, cached.FetchedAt, false)
		}
	}

	return c
}

// Start begins the background checker: one immediate check, then one per
// interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	if os.Getenv(EnvDisableVersionCheck) == "true" {
		c.logger.Info("Version checker disabled by environment variable",
			zap.String("env", EnvDisableVersionCheck))
		return
	}

	c.logger.Info("Starting version checker",
		zap.String("current", c.version),
		zap.Duration("interval", c.checkInterval))

	go c.Check(ctx)

	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Version checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check performs a single manifest fetch and updates the cache.
func (c *Checker) Check(ctx context.Context) {
	c.logger.Debug("Checking release manifest")

	manifest, err := c.checkFunc(ctx)
	if err != nil {
		c.logger.Debug("Version check failed", zap.Error(err))
		c.recordError(err.Error())
		return
	}

	c.applyManifest(manifest, time.Now(), true)
}

// GetVersionInfo returns a copy of the cached check result.
func (c *Checker) GetVersionInfo() *VersionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info := *c.versionInfo
	return &info
}

func (c *Checker) recordError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.versionInfo.CheckedAt = &now
	c.versionInfo.CheckError = msg
}

func (c *Checker) applyManifest(manifest *Manifest, checkedAt time.Time, persist bool) {
	updateAvailable := compareVersions(c.version, manifest.Latest)

	c.mu.Lock()
	c.versionInfo = &VersionInfo{
		CurrentVersion:  c.version,
		LatestVersion:   manifest.Latest,
		UpdateAvailable: updateAvailable,
		Versions:        manifest.Versions,
		CheckedAt:       &checkedAt,
	}
	c.mu.Unlock()

	if updateAvailable {
		c.logger.Info("Newer game server release available",
			zap.String("current", c.version),
			zap.String("latest", manifest.Latest))
	}

	if persist && c.db != nil {
		err := c.db.SaveVersionManifest(&storage.VersionManifest{
			Project:   manifest.Project,
			Versions:  manifest.Versions,
			Latest:    manifest.Latest,
			FetchedAt: checkedAt,
		})
		if err != nil {
			c.logger.Warn("Failed to persist version manifest", zap.Error(err))
		}
	}
}

// compareVersions reports whether latest is newer than current. Game
// releases are not always full semver ("1.21"), so both sides are padded
// before comparison; unparseable versions never report an update.
func compareVersions(current, latest string) bool {
	currentSemver := canonicalVersion(current)
	latestSemver := canonicalVersion(latest)
	if !semver.IsValid(currentSemver) || !semver.IsValid(latestSemver) {
		return false
	}
	return semver.Compare(currentSemver, latestSemver) < 0
}

// canonicalVersion turns release strings like "1.21" into semver "v1.21.0".
func canonicalVersion(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if strings.Count(v, ".") == 1 {
		v += ".0"
	}
	return v
}
