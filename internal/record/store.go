package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/status"
)

// Store persists per-project records under a data directory:
//
//	{data}/{id}/{id}_details.json   detail record
//	{data}/{id}/{id}_images.json    ordered image metadata
//	{data}/{id}/{id}.json           merged record (details + images)
type Store struct {
	dataDir string
	logger  *zap.Logger
}

// NewStore returns a Store rooted at dataDir.
func NewStore(dataDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dataDir: dataDir, logger: logger}
}

// ProjectDir returns (creating if needed) the directory for one project.
func (s *Store) ProjectDir(projectID string) (string, error) {
	dir := filepath.Join(s.dataDir, projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project dir %s: %w", dir, status.ErrFilesystem)
	}
	return dir, nil
}

// WriteDetails persists the detail record for a project.
func (s *Store) WriteDetails(projectID string, detail Detail) error {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, projectID+"_details.json")
	return writeJSON(path, detail)
}

// WriteImages persists the ordered image metadata list for a project.
// Callers only invoke this with a non-empty list.
func (s *Store) WriteImages(projectID string, images []Image) error {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, projectID+"_images.json")
	return writeJSON(path, images)
}

// ReadMerged loads the merged {id}.json object if present. A missing file
// returns an empty object and no error.
func (s *Store) ReadMerged(projectID string) (map[string]any, error) {
	path := filepath.Join(s.dataDir, projectID, projectID+".json")
	obj := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return obj, nil
		}
		return nil, fmt.Errorf("read merged record %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		s.logger.Warn("merged record is not an object, rebuilding", zap.String("path", path))
		return map[string]any{}, nil
	}
	return obj, nil
}

// WriteMerged stores the merged {id}.json object.
func (s *Store) WriteMerged(projectID string, obj map[string]any) error {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, projectID+".json"), obj)
}

// ReadDetails loads the detail record as a generic object for merging.
func (s *Store) ReadDetails(projectID string) (map[string]any, error) {
	path := filepath.Join(s.dataDir, projectID, projectID+"_details.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read detail record %s: %w", path, err)
	}
	obj := map[string]any{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode detail record %s: %w", path, err)
	}
	return obj, nil
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, status.ErrFilesystem)
	}
	return nil
}
