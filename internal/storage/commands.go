package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.etcd.io/bbolt"
)

// commandKey generates a bolt key for a command record.
// Key format: {timestamp_ns}_{ulid}, so a forward cursor walks the audit log
// in chronological order.
func commandKey(timestamp time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", timestamp.UnixNano(), id))
}

// SaveCommand appends one command to the audit log.
func (b *BoltDB) SaveCommand(record *CommandRecord) error {
	if record == nil {
		return fmt.Errorf("command record cannot be nil")
	}
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal command record: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(CommandLogBucket)).Put(commandKey(record.Timestamp, record.ID), data)
	})
}

// RecentCommands returns up to limit audit records, newest first.
func (b *BoltDB) RecentCommands(limit int) ([]*CommandRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*CommandRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(CommandLogBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			record := &CommandRecord{}
			if err := json.Unmarshal(v, record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read command log: %w", err)
	}
	return records, nil
}

// PruneCommands drops audit records older than cutoff and returns how many
// were removed.
func (b *BoltDB) PruneCommands(cutoff time.Time) (int, error) {
	pruned := 0
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(CommandLogBucket))
		c := bucket.Cursor()
		limit := commandKey(cutoff, "")
		var stale [][]byte
		for k, _ := c.First(); k != nil && string(k) < string(limit); k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		pruned = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune command log: %w", err)
	}
	return pruned, nil
}
