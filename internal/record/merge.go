package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// MergeSummary reports what a merge sweep did.
type MergeSummary struct {
	Projects      int
	Updated       int
	Created       int
	MissingImages int
	Mirrored      int
}

// MergeAll walks every project directory, folds {id}_images.json into
// {id}.json under an "images" key, and mirrors the merged record into the
// flat collection directory as {id}.json. Projects without an images file are
// passed through: any existing merged record is still mirrored. Per-project
// failures are logged, never fatal to the sweep.
func (s *Store) MergeAll(collectionDir string) (MergeSummary, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return MergeSummary{}, fmt.Errorf("read data dir %s: %w", s.dataDir, err)
	}
	if err := os.MkdirAll(collectionDir, 0o755); err != nil {
		return MergeSummary{}, fmt.Errorf("create collection dir %s: %w", collectionDir, err)
	}

	var sum MergeSummary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		projectID := entry.Name()
		sum.Projects++

		images, ok := s.loadImages(projectID)
		if !ok {
			sum.MissingImages++
			if s.mirror(projectID, collectionDir) {
				sum.Mirrored++
			}
			continue
		}

		merged, err := s.ReadMerged(projectID)
		if err != nil {
			s.logger.Warn("skip project, merged record unreadable",
				zap.String("project_id", projectID), zap.Error(err))
			continue
		}
		existed := len(merged) > 0
		if !existed {
			if details, derr := s.ReadDetails(projectID); derr == nil {
				merged = details
				existed = false
			}
		}
		merged["images"] = images

		if err := s.WriteMerged(projectID, merged); err != nil {
			s.logger.Warn("write merged record failed",
				zap.String("project_id", projectID), zap.Error(err))
			continue
		}
		if existed {
			sum.Updated++
		} else {
			sum.Created++
		}
		if s.mirror(projectID, collectionDir) {
			sum.Mirrored++
		}
	}
	return sum, nil
}

// loadImages reads the image metadata list, treating a malformed file as an
// empty list so one bad project never stops the sweep.
func (s *Store) loadImages(projectID string) ([]any, bool) {
	path := filepath.Join(s.dataDir, projectID, projectID+"_images.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var images []any
	if err := json.Unmarshal(data, &images); err != nil {
		s.logger.Warn("images file is not a list, treating as empty",
			zap.String("path", path))
		return []any{}, true
	}
	return images, true
}

// mirror copies {id}.json into the flat collection directory.
func (s *Store) mirror(projectID, collectionDir string) bool {
	src := filepath.Join(s.dataDir, projectID, projectID+".json")
	data, err := os.ReadFile(src)
	if err != nil {
		return false
	}
	dest := filepath.Join(collectionDir, projectID+".json")
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		s.logger.Warn("mirror merged record failed",
			zap.String("dest", dest), zap.Error(err))
		return false
	}
	return true
}
