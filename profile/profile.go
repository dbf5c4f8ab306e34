// Package profile stores the broker profile printed on converted flyers.
//
// Three stores are provided: a YAML file, a SQLite database (the
// company_info table) and an environment variable holding base64-encoded
// JSON. All of them keep a single profile.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tsawler/mysouku/model"
)

// ErrNotFound is returned by Fetch when no profile has been stored.
var ErrNotFound = errors.New("broker profile not found")

// Store reads and writes the broker profile.
type Store interface {
	Fetch(ctx context.Context) (model.BrokerProfile, error)
	Save(ctx context.Context, p model.BrokerProfile) error
}

// Demo is the sample profile served by an unset EnvStore in demo mode.
func Demo() model.BrokerProfile {
	return model.BrokerProfile{
		CompanyName:        "サンプル不動産株式会社",
		CompanyNameReading: "サンプルフドウサンカブシキガイシャ",
		PostalCode:         "100-0001",
		Address:            "東京都千代田区千代田1-1-1",
		Phone:              "03-1234-5678",
		Fax:                "03-1234-5679",
		Email:              "info@sample-realestate.co.jp",
		Website:            "https://sample-realestate.co.jp",
		LicenseNumber:      "東京都知事(1)第12345号",
		RepresentativeName: "山田太郎",
	}
}

// Validate checks that p can be stored: a company name is required and an
// email address, when present, must be well formed.
func Validate(p model.BrokerProfile) error {
	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

// Open returns the store of the given kind. path is the file or database
// for the file and sqlite stores; envVar names the variable of the env
// store.
func Open(kind, path, envVar string) (Store, error) {
	switch kind {
	case "file":
		return NewFileStore(path), nil
	case "sqlite":
		return OpenSQLite(path)
	case "env":
		return NewEnvStore(envVar, true), nil
	default:
		return nil, fmt.Errorf("unknown profile store %q", kind)
	}
}
