// Package manifest records what one distribution run did, so a reviewer can
// match drafts back to the extract that produced them.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/areamail-cli/internal/normalize"
	"github.com/KaramelBytes/areamail-cli/internal/utils"
	"github.com/google/uuid"
)

// Manifest is the JSON document written after a run.
type Manifest struct {
	RunID      string          `json:"run_id"`
	Input      string          `json:"input"`
	Sheet      string          `json:"sheet,omitempty"`
	Backend    string          `json:"backend"`
	DryRun     bool            `json:"dry_run"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Stats      normalize.Stats `json:"stats"`
	Groups     []GroupOutcome  `json:"groups"`
}

// GroupOutcome is the per-group dispatch result.
type GroupOutcome struct {
	Group   string   `json:"group"`
	Title   string   `json:"title"`
	Subject string   `json:"subject"`
	Rows    int      `json:"rows"`
	To      []string `json:"to,omitempty"`
	Cc      []string `json:"cc,omitempty"`
	Ref     string   `json:"ref,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// New starts a manifest with a fresh run ID.
func New(input, backend string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Input:     input,
		Backend:   backend,
		StartedAt: time.Now(),
	}
}

// Add appends a group outcome; err may be nil.
func (m *Manifest) Add(g GroupOutcome, err error) {
	if err != nil {
		g.Error = err.Error()
	}
	m.Groups = append(m.Groups, g)
}

// Failed counts groups with an error.
func (m *Manifest) Failed() int {
	n := 0
	for _, g := range m.Groups {
		if g.Error != "" {
			n++
		}
	}
	return n
}

// FileName is the manifest's name inside the output directory.
func (m *Manifest) FileName() string {
	return "run-" + m.RunID + ".json"
}

// Save stamps FinishedAt and writes the manifest atomically into dir.
func (m *Manifest) Save(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("manifest directory not set")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure dir: %w", err)
	}
	m.FinishedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, m.FileName())
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a manifest written by Save.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
