package profile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/tsawler/mysouku/model"
)

// FileStore keeps the profile in a YAML file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the YAML file at path. The file
// need not exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Fetch implements Store.
func (s *FileStore) Fetch(ctx context.Context) (model.BrokerProfile, error) {
	var p model.BrokerProfile
	if err := ctx.Err(); err != nil {
		return p, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", s.path, err)
	}
	if !p.HasIdentity() {
		return p, ErrNotFound
	}
	return p, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, p model.BrokerProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(p); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}
