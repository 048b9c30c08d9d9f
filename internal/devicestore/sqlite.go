package devicestore

import (
	"context"
	"errors"

	"github.com/lumina-commerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/lumina-commerce/storefront-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLite keeps device entries in a local sqlite file so carts and wishlists
// survive restarts of the client process.
type SQLite struct {
	db *gorm.DB
}

// NewSQLite migrates the device_entries table and returns the store.
func NewSQLite(db *gorm.DB) (*SQLite, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "device store requires a database handle")
	}
	if err := db.AutoMigrate(&models.DeviceEntry{}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "migrate device store")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var row models.DeviceEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read device entry")
	}
	return row.Value, true, nil
}

func (s *SQLite) Write(ctx context.Context, key string, value []byte) error {
	row := models.DeviceEntry{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write device entry")
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.DeviceEntry{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear device entry")
	}
	return nil
}
