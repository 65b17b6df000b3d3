// Package authority keeps the list of verified authorities for a case folder.
package authority

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/citecheck/internal/model"
)

// ErrNoVerifiedCandidate is returned when a citation has nothing to record
var ErrNoVerifiedCandidate = errors.New("citation has no verified candidate")

// Store reads and writes <caseDir>/.casekit/authorities.json
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a store for the case folder at caseDir
func NewStore(caseDir string) *Store {
	return &Store{
		path: filepath.Join(caseDir, ".casekit", "authorities.json"),
		now:  time.Now,
	}
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// Load returns every saved authority; a missing file is an empty list
func (s *Store) Load() ([]model.Authority, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Authority{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read authorities: %w", err)
	}

	authorities := []model.Authority{}
	if err := json.Unmarshal(data, &authorities); err != nil {
		return nil, fmt.Errorf("parse authorities: %w", err)
	}
	return authorities, nil
}

// Save replaces the authority with the same id, or appends it, and returns
// the updated list
func (s *Store) Save(a model.Authority) ([]model.Authority, error) {
	authorities, err := s.Load()
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range authorities {
		if authorities[i].ID == a.ID {
			authorities[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		authorities = append(authorities, a)
	}

	if err := s.write(authorities); err != nil {
		return nil, err
	}
	return authorities, nil
}

// Remove deletes the authority with id and returns the remaining list.
// Removing from a case with no file is a no-op.
func (s *Store) Remove(id string) ([]model.Authority, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return []model.Authority{}, nil
	}

	authorities, err := s.Load()
	if err != nil {
		return nil, err
	}

	kept := authorities[:0]
	for _, a := range authorities {
		if a.ID != id {
			kept = append(kept, a)
		}
	}

	if err := s.write(kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// FromVerified builds a new authority from a verified citation's best candidate
func (s *Store) FromVerified(c model.VerifiedCitation, notes string) (model.Authority, error) {
	best := c.BestCandidate()
	if c.Status != model.StatusVerified || best == nil {
		return model.Authority{}, fmt.Errorf("%s: %w", c.Citation, ErrNoVerifiedCandidate)
	}

	return model.Authority{
		ID:        uuid.NewString(),
		Citation:  c.Citation,
		CaseName:  c.CaseName,
		URL:       best.URL,
		Source:    best.Source,
		Title:     best.Title,
		DateAdded: s.now().UTC().Format(time.RFC3339),
		Notes:     model.StringPtr(notes),
	}, nil
}

func (s *Store) write(authorities []model.Authority) error {
	data, err := json.MarshalIndent(authorities, "", "  ")
	if err != nil {
		return fmt.Errorf("serialise authorities: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".authorities-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write authorities: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close authorities: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write authorities: %w", err)
	}
	return nil
}
