package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// BoltDB wraps bolt database operations
type BoltDB struct {
	db     *bbolt.DB
	logger *zap.SugaredLogger
}

// NewBoltDB opens (or creates) the panel database under dataDir.
func NewBoltDB(dataDir string, logger *zap.SugaredLogger) (*BoltDB, error) {
	dbPath := filepath.Join(dataDir, "panel.db")

	db, err := bbolt.Open(dbPath, 0644, &bbolt.Options{
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	boltDB := &BoltDB{
		db:     db,
		logger: logger,
	}

	if err := boltDB.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return boltDB, nil
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// initBuckets creates required buckets and sets up schema
func (b *BoltDB) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		buckets := []string{
			ModsBucket,
			VersionsBucket,
			CommandLogBucket,
			MetaBucket,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		metaBucket := tx.Bucket([]byte(MetaBucket))
		versionBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(versionBytes, CurrentSchemaVersion)
		return metaBucket.Put([]byte(SchemaVersionKey), versionBytes)
	})
}

// GetSchemaVersion returns the schema version stored in the meta bucket.
func (b *BoltDB) GetSchemaVersion() (uint64, error) {
	var version uint64
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(MetaBucket))
		if bucket == nil {
			return fmt.Errorf("meta bucket not found")
		}
		versionBytes := bucket.Get([]byte(SchemaVersionKey))
		if versionBytes == nil {
			version = 0
			return nil
		}
		if len(versionBytes) != 8 {
			return fmt.Errorf("invalid schema version format")
		}
		version = binary.LittleEndian.Uint64(versionBytes)
		return nil
	})
	return version, err
}
