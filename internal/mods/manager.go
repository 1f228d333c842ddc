// Package mods manages the game server's mod files: discovery, enable and
// disable via file moves, persisted records, and full-text search.
package mods

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/config"
	"github.com/craftpanel/craftpanel-go/internal/index"
	"github.com/craftpanel/craftpanel-go/internal/storage"
)

// Manager coordinates mod records, the search index, and the mod files on
// disk. Enabled mods live in cfg.Dir, disabled ones in cfg.DisabledDir.
type Manager struct {
	cfg    *config.ModsConfig
	db     *storage.BoltDB
	idx    *index.BleveIndex
	logger *zap.Logger
}

// NewManager creates a mod manager and ensures both mod directories exist.
func NewManager(cfg *config.ModsConfig, db *storage.BoltDB, idx *index.BleveIndex, logger *zap.Logger) (*Manager, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("mods directory not configured")
	}
	if cfg.DisabledDir == "" {
		cfg.DisabledDir = cfg.Dir + "-disabled"
	}
	for _, dir := range []string{cfg.Dir, cfg.DisabledDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create mod directory %s: %w", dir, err)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		db:     db,
		idx:    idx,
		logger: logger,
	}, nil
}

// Sync reconciles the database and index with the mod files on disk.
// Records for files that disappeared are removed.
func (m *Manager) Sync() error {
	seen := map[string]bool{}

	scan := func(dir string, enabled bool) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jar") {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".jar")
			seen[name] = true
			if err := m.upsert(dir, entry.Name(), name, enabled); err != nil {
				return err
			}
		}
		return nil
	}

	if err := scan(m.cfg.Dir, true); err != nil {
		return err
	}
	if err := scan(m.cfg.DisabledDir, false); err != nil {
		return err
	}

	records, err := m.db.ListMods()
	if err != nil {
		return err
	}
	for _, record := range records {
		if seen[record.Name] {
			continue
		}
		m.logger.Info("Mod file removed, dropping record", zap.String("name", record.Name))
		if err := m.db.DeleteMod(record.Name); err != nil {
			return err
		}
		if err := m.idx.DeleteMod(record.Name); err != nil {
			m.logger.Warn("Failed to remove mod from index", zap.String("name", record.Name), zap.Error(err))
		}
	}
	return nil
}

func (m *Manager) upsert(dir, fileName, name string, enabled bool) error {
	path := filepath.Join(dir, fileName)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	existing, err := m.db.GetMod(name)
	if err != nil {
		return err
	}

	record := &storage.ModRecord{
		Name:     name,
		FileName: fileName,
		Enabled:  enabled,
	}
	if existing != nil {
		record.Version = existing.Version
		record.Description = existing.Description
		record.InstalledAt = existing.InstalledAt
		record.SHA256 = existing.SHA256
	}
	record.SizeBytes = info.Size()

	// Hash only when the file is new or changed size; hashing every jar on
	// every sync is too slow for large packs.
	if existing == nil || existing.SizeBytes != info.Size() || record.SHA256 == "" {
		hash, err := hashFile(path)
		if err != nil {
			return err
		}
		record.SHA256 = hash
	}

	if err := m.db.SaveMod(record); err != nil {
		return err
	}
	return m.idx.IndexMod(&index.ModDocument{
		Name:        record.Name,
		Version:     record.Version,
		Description: record.Description,
		FileName:    record.FileName,
		Enabled:     record.Enabled,
	})
}

// List returns all known mods.
func (m *Manager) List() ([]*storage.ModRecord, error) {
	return m.db.ListMods()
}

// Search runs a full-text query over mod names and descriptions.
func (m *Manager) Search(query string, limit int) ([]*index.SearchHit, error) {
	return m.idx.SearchMods(query, limit)
}

// Enable moves the mod file back into the live mods directory.
func (m *Manager) Enable(name string) error {
	return m.move(name, true)
}

// Disable moves the mod file out of the live mods directory. The game picks
// the change up on its next restart.
func (m *Manager) Disable(name string) error {
	return m.move(name, false)
}

func (m *Manager) move(name string, enable bool) error {
	record, err := m.db.GetMod(name)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("unknown mod: %s", name)
	}
	if record.Enabled == enable {
		return nil
	}

	from := filepath.Join(m.cfg.DisabledDir, record.FileName)
	to := filepath.Join(m.cfg.Dir, record.FileName)
	if !enable {
		from, to = to, from
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to move mod file: %w", err)
	}

	record.Enabled = enable
	if err := m.db.SaveMod(record); err != nil {
		return err
	}
	if err := m.idx.IndexMod(&index.ModDocument{
		Name:        record.Name,
		Version:     record.Version,
		Description: record.Description,
		FileName:    record.FileName,
		Enabled:     record.Enabled,
	}); err != nil {
		m.logger.Warn("Failed to reindex mod", zap.String("name", name), zap.Error(err))
	}

	m.logger.Info("Mod state changed",
		zap.String("name", name),
		zap.Bool("enabled", enable))
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
