package problems

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalog lists problems from a directory of <problem_id>.json files.
// Only the public_tests/hidden_tests keys are interpreted; everything
// else in the files belongs to the grading service.
type Catalog struct {
	dir string
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

type problemFile struct {
	PublicTests []json.RawMessage `json:"public_tests"`
	HiddenTests []json.RawMessage `json:"hidden_tests"`
}

type ProblemInfo struct {
	ProblemID        string            `json:"problem_id"`
	PublicTests      []json.RawMessage `json:"public_tests"`
	HiddenTestsCount int               `json:"hidden_tests_count"`
	TotalTests       int               `json:"total_tests"`
}

// List returns the ids of all problems that carry at least one test
// section. Files that fail to parse are skipped.
func (c *Catalog) List() ([]string, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read problems directory: %w", err)
	}

	var ids []string
	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(c.dir, file.Name()))
		if err != nil {
			continue
		}

		var p problemFile
		if err := json.Unmarshal(content, &p); err != nil {
			continue
		}
		if p.PublicTests == nil && p.HiddenTests == nil {
			continue
		}

		ids = append(ids, strings.TrimSuffix(file.Name(), ".json"))
	}

	sort.Strings(ids)
	return ids, nil
}

func (c *Catalog) Has(problemID string) bool {
	if !validID(problemID) {
		return false
	}
	_, err := os.Stat(filepath.Join(c.dir, problemID+".json"))
	return err == nil
}

// Describe returns the public side of a problem, or nil when unknown.
func (c *Catalog) Describe(problemID string) (*ProblemInfo, error) {
	if !validID(problemID) {
		return nil, nil
	}

	content, err := os.ReadFile(filepath.Join(c.dir, problemID+".json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read problem %s: %w", problemID, err)
	}

	var p problemFile
	if err := json.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("failed to parse problem %s: %w", problemID, err)
	}

	return &ProblemInfo{
		ProblemID:        problemID,
		PublicTests:      p.PublicTests,
		HiddenTestsCount: len(p.HiddenTests),
		TotalTests:       len(p.PublicTests) + len(p.HiddenTests),
	}, nil
}

// validID keeps problem ids from escaping the catalog directory
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/\\") && id != "." && id != ".."
}
