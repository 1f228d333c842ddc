// Package index maintains the full-text search index over installed mods.
package index

import (
	"fmt"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"go.uber.org/zap"
)

// BleveIndex wraps Bleve index operations
type BleveIndex struct {
	index  bleve.Index
	logger *zap.Logger
}

// ModDocument represents a mod in the index
type ModDocument struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	FileName    string `json:"file_name"`
	Enabled     bool   `json:"enabled"`
}

// SearchHit is one search result with its relevance score.
type SearchHit struct {
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Description string  `json:"description"`
	FileName    string  `json:"file_name"`
	Score       float64 `json:"score"`
}

// NewBleveIndex opens the mod index under dataDir, creating it when absent.
func NewBleveIndex(dataDir string, logger *zap.Logger) (*BleveIndex, error) {
	indexPath := filepath.Join(dataDir, "mods.bleve")

	index, err := bleve.Open(indexPath)
	if err != nil {
		logger.Info("Creating new Bleve index", zap.String("path", indexPath))
		index, err = createBleveIndex(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create Bleve index: %w", err)
		}
	} else {
		logger.Info("Opened existing Bleve index", zap.String("path", indexPath))
	}

	return &BleveIndex{
		index:  index,
		logger: logger,
	}, nil
}

// createBleveIndex creates a new Bleve index with the mod document mapping
func createBleveIndex(indexPath string) (bleve.Index, error) {
	indexMapping := bleve.NewIndexMapping()
	modMapping := bleve.NewDocumentMapping()

	// Exact-match fields use the keyword analyzer.
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = keyword.Name
	nameField.Store = true
	nameField.Index = true
	modMapping.AddFieldMappingsAt("name", nameField)

	versionField := bleve.NewTextFieldMapping()
	versionField.Analyzer = keyword.Name
	versionField.Store = true
	versionField.Index = false
	modMapping.AddFieldMappingsAt("version", versionField)

	fileNameField := bleve.NewTextFieldMapping()
	fileNameField.Analyzer = keyword.Name
	fileNameField.Store = true
	fileNameField.Index = true
	modMapping.AddFieldMappingsAt("file_name", fileNameField)

	// Description gets full-text search.
	descriptionField := bleve.NewTextFieldMapping()
	descriptionField.Analyzer = standard.Name
	descriptionField.Store = true
	descriptionField.Index = true
	modMapping.AddFieldMappingsAt("description", descriptionField)

	indexMapping.AddDocumentMapping("mod", modMapping)
	indexMapping.DefaultMapping = modMapping

	return bleve.New(indexPath, indexMapping)
}

// Close closes the index
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// IndexMod indexes a mod document keyed by its name.
func (b *BleveIndex) IndexMod(doc *ModDocument) error {
	if doc == nil || doc.Name == "" {
		return fmt.Errorf("mod document requires a name")
	}
	b.logger.Debug("Indexing mod", zap.String("name", doc.Name))
	return b.index.Index(doc.Name, doc)
}

// DeleteMod removes a mod from the index
func (b *BleveIndex) DeleteMod(name string) error {
	b.logger.Debug("Deleting mod from index", zap.String("name", name))
	return b.index.Delete(name)
}

// SearchMods searches the index using BM25 scoring.
func (b *BleveIndex) SearchMods(query string, limit int) ([]*SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	matchQuery := bleve.NewMatchQuery(query)
	searchReq := bleve.NewSearchRequest(matchQuery)
	searchReq.Size = limit
	searchReq.Fields = []string{"name", "version", "description", "file_name"}

	searchResult, err := b.index.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var hits []*SearchHit
	for _, hit := range searchResult.Hits {
		hits = append(hits, &SearchHit{
			Name:        getStringField(hit.Fields, "name"),
			Version:     getStringField(hit.Fields, "version"),
			Description: getStringField(hit.Fields, "description"),
			FileName:    getStringField(hit.Fields, "file_name"),
			Score:       hit.Score,
		})
	}
	return hits, nil
}

// DocumentCount returns the number of indexed mods.
func (b *BleveIndex) DocumentCount() (uint64, error) {
	return b.index.DocCount()
}

func getStringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
