package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

// SaveMod upserts a mod record keyed by name.
func (b *BoltDB) SaveMod(record *ModRecord) error {
	if record == nil || record.Name == "" {
		return fmt.Errorf("mod record requires a name")
	}
	now := time.Now().UTC()
	if record.InstalledAt.IsZero() {
		record.InstalledAt = now
	}
	record.UpdatedAt = now

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal mod record: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(ModsBucket)).Put([]byte(record.Name), data)
	})
}

// GetMod returns the mod record for name, or nil when absent.
func (b *BoltDB) GetMod(name string) (*ModRecord, error) {
	var record *ModRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(ModsBucket)).Get([]byte(name))
		if data == nil {
			return nil
		}
		record = &ModRecord{}
		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load mod %s: %w", name, err)
	}
	return record, nil
}

// ListMods returns all mod records sorted by name.
func (b *BoltDB) ListMods() ([]*ModRecord, error) {
	var records []*ModRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(ModsBucket)).ForEach(func(_, v []byte) error {
			record := &ModRecord{}
			if err := json.Unmarshal(v, record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mods: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// DeleteMod removes the mod record for name. Missing records are not an error.
func (b *BoltDB) DeleteMod(name string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(ModsBucket)).Delete([]byte(name))
	})
}
