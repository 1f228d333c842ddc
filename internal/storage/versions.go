package storage

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

const manifestKey = "manifest"

// SaveVersionManifest caches the upstream release manifest.
func (b *BoltDB) SaveVersionManifest(manifest *VersionManifest) error {
	if manifest == nil {
		return fmt.Errorf("version manifest cannot be nil")
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal version manifest: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(VersionsBucket)).Put([]byte(manifestKey), data)
	})
}

// GetVersionManifest returns the cached manifest, or nil when none was saved.
func (b *BoltDB) GetVersionManifest() (*VersionManifest, error) {
	var manifest *VersionManifest
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(VersionsBucket)).Get([]byte(manifestKey))
		if data == nil {
			return nil
		}
		manifest = &VersionManifest{}
		return json.Unmarshal(data, manifest)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load version manifest: %w", err)
	}
	return manifest, nil
}
