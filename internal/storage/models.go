package storage

import "time"

// Bucket names
const (
	ModsBucket       = "mods"
	VersionsBucket   = "versions"
	CommandLogBucket = "command_log"
	MetaBucket       = "meta"
)

// Meta bucket keys
const (
	SchemaVersionKey = "schema"
)

// CurrentSchemaVersion is the schema version this build writes.
const CurrentSchemaVersion = 1

// ModRecord is the persisted state of an installed mod.
type ModRecord struct {
	Name        string    `json:"name"`
	Version     string    `json:"version,omitempty"`
	FileName    string    `json:"file_name"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	SHA256      string    `json:"sha256,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommandRecord is one audited console command.
type CommandRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"` // token subject that issued it
	Source    string    `json:"source"`  // "websocket" or "cli"
	Content   string    `json:"content"`
}

// VersionManifest is the cached upstream release manifest.
type VersionManifest struct {
	Project   string    `json:"project"`
	Versions  []string  `json:"versions"`
	Latest    string    `json:"latest,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}
