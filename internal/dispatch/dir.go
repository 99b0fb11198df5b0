package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/KaramelBytes/areamail-cli/internal/utils"
	"github.com/gosimple/slug"
)

// DirDrafter writes each draft as a .eml file into a directory so it can be
// reviewed or imported into any mail client.
type DirDrafter struct {
	dir string

	mu      sync.Mutex
	claimed map[string]bool
}

// NewDirDrafter creates dir if needed.
func NewDirDrafter(dir string) (*DirDrafter, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &DirDrafter{dir: dir, claimed: map[string]bool{}}, nil
}

// CreateDraft writes <slug(title)>.eml, never overwriting an existing file.
func (d *DirDrafter) CreateDraft(ctx context.Context, dr Draft) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg, err := Compose(dr)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	path := utils.UniquePath(d.dir, FileBase(dr.Title), ".eml", func(p string) bool { return d.claimed[p] })
	d.claimed[path] = true
	d.mu.Unlock()
	if err := utils.SafeWriteFile(path, msg); err != nil {
		return "", fmt.Errorf("write draft: %w", err)
	}
	return path, nil
}

// FileBase turns a group title into a file name stem.
func FileBase(title string) string {
	s := slug.Make(title)
	if s == "" {
		return "group"
	}
	return s
}
