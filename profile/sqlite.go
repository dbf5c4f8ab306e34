package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tsawler/mysouku/model"
)

// companyRecord is a row of the company_info table.
type companyRecord struct {
	ID                 uint   `gorm:"primaryKey"`
	CompanyName        string `gorm:"not null"`
	CompanyNameKana    string
	PostalCode         string
	Address            string
	Phone              string
	Fax                string
	Email              string
	Website            string
	LicenseNumber      string
	RepresentativeName string
	LogoData           []byte
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (companyRecord) TableName() string {
	return "company_info"
}

func (r companyRecord) profile() model.BrokerProfile {
	return model.BrokerProfile{
		CompanyName:        r.CompanyName,
		CompanyNameReading: r.CompanyNameKana,
		PostalCode:         r.PostalCode,
		Address:            r.Address,
		Phone:              r.Phone,
		Fax:                r.Fax,
		Email:              r.Email,
		Website:            r.Website,
		LicenseNumber:      r.LicenseNumber,
		RepresentativeName: r.RepresentativeName,
		Logo:               r.LogoData,
	}
}

// SQLiteStore keeps the profile in row 1 of the company_info table.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// the company_info table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open profile database: %w", err)
	}
	if err := db.AutoMigrate(&companyRecord{}); err != nil {
		return nil, fmt.Errorf("migrate profile database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Fetch implements Store.
func (s *SQLiteStore) Fetch(ctx context.Context) (model.BrokerProfile, error) {
	var rec companyRecord
	err := s.db.WithContext(ctx).Order("id").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.BrokerProfile{}, ErrNotFound
	}
	if err != nil {
		return model.BrokerProfile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return rec.profile(), nil
}

// Save implements Store. The single row is created or replaced.
func (s *SQLiteStore) Save(ctx context.Context, p model.BrokerProfile) error {
	if err := Validate(p); err != nil {
		return err
	}

	rec := companyRecord{
		ID:                 1,
		CompanyName:        p.CompanyName,
		CompanyNameKana:    p.CompanyNameReading,
		PostalCode:         p.PostalCode,
		Address:            p.Address,
		Phone:              p.Phone,
		Fax:                p.Fax,
		Email:              p.Email,
		Website:            p.Website,
		LicenseNumber:      p.LicenseNumber,
		RepresentativeName: p.RepresentativeName,
		LogoData:           p.Logo,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing companyRecord
		err := tx.First(&existing, 1).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&rec).Error
		case err != nil:
			return err
		default:
			rec.CreatedAt = existing.CreatedAt
			return tx.Save(&rec).Error
		}
	})
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
