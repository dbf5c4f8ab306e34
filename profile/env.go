package profile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tsawler/mysouku/model"
)

// EnvStore reads the profile from an environment variable holding
// base64-encoded JSON, for deployments without a writable disk.
//
// Saved profiles are kept in memory for the life of the process; Encoded
// returns the value to export for the next start.
type EnvStore struct {
	name   string
	demo   bool
	lookup func(string) (string, bool)

	mu    sync.Mutex
	saved string
}

// NewEnvStore returns a store reading the variable name. With demo set, an
// unset variable yields the Demo profile instead of ErrNotFound.
func NewEnvStore(name string, demo bool) *EnvStore {
	return &EnvStore{name: name, demo: demo, lookup: os.LookupEnv}
}

// Fetch implements Store.
func (s *EnvStore) Fetch(ctx context.Context) (model.BrokerProfile, error) {
	if err := ctx.Err(); err != nil {
		return model.BrokerProfile{}, err
	}

	s.mu.Lock()
	raw := s.saved
	s.mu.Unlock()
	if raw == "" {
		raw, _ = s.lookup(s.name)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		if s.demo {
			return Demo(), nil
		}
		return model.BrokerProfile{}, ErrNotFound
	}
	return Decode(raw)
}

// Save implements Store.
func (s *EnvStore) Save(ctx context.Context, p model.BrokerProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(p); err != nil {
		return err
	}
	enc, err := Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.saved = enc
	s.mu.Unlock()
	return nil
}

// Encoded returns the value of the last saved profile, or "" if none.
func (s *EnvStore) Encoded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// Encode renders p as base64 JSON.
func Encode(p model.BrokerProfile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses a base64 JSON profile.
func Decode(raw string) (model.BrokerProfile, error) {
	var p model.BrokerProfile
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return p, fmt.Errorf("decode profile: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode profile: %w", err)
	}
	if !p.HasIdentity() {
		return p, ErrNotFound
	}
	return p, nil
}
