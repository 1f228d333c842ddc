package versions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// projectManifest mirrors the PaperMC project endpoint shape.
type projectManifest struct {
	ProjectID   string   `json:"project_id"`
	ProjectName string   `json:"project_name"`
	Versions    []string `json:"versions"`
}

// ManifestClient fetches the upstream release manifest.
type ManifestClient struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewManifestClient creates a client for the manifest at url.
func NewManifestClient(url string, logger *zap.Logger) *ManifestClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManifestClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Fetch downloads and parses the manifest. Versions come back newest first.
func (c *ManifestClient) Fetch(ctx context.Context) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("manifest request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest endpoint returned %d", resp.StatusCode)
	}

	var project projectManifest
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	// Upstream lists oldest first.
	versions := make([]string, len(project.Versions))
	for i, v := range project.Versions {
		versions[len(project.Versions)-1-i] = v
	}

	manifest := &Manifest{
		Project:  project.ProjectID,
		Versions: versions,
	}
	if len(versions) > 0 {
		manifest.Latest = versions[0]
	}

	c.logger.Debug("Fetched release manifest",
		zap.String("project", manifest.Project),
		zap.Int("versions", len(versions)))
	return manifest, nil
}
