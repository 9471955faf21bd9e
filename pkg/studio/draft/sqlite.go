package draft

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// draftRecord is the drafts table row. The draft itself is kept as an
// opaque JSON payload; tool kind and scope are broken out for indexing.
type draftRecord struct {
	Key      string    `gorm:"primaryKey;size:255"`
	ToolKind string    `gorm:"size:32;not null;index"`
	ScopeKey string    `gorm:"size:128;not null"`
	Payload  string    `gorm:"type:text;not null"`
	SavedAt  time.Time `gorm:"index"`
}

func (draftRecord) TableName() string { return "drafts" }

type sqliteStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func newSQLiteStore(config *storeConfig) (*sqliteStore, error) {
	db := config.db
	if db == nil {
		if config.sqlitePath == "" {
			return nil, apperrors.New(apperrors.ErrCodePersistence,
				"sqlite draft store requires a database path or handle", nil)
		}
		var err error
		db, err = gorm.Open(sqlite.Open(config.sqlitePath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to open draft database", err)
		}
	}

	if err := db.AutoMigrate(&draftRecord{}); err != nil {
		return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to migrate drafts table", err)
	}

	return &sqliteStore{db: db, ttl: config.ttl, now: config.now}, nil
}

func (s *sqliteStore) Save(ctx context.Context, d *Draft) error {
	d.SavedAt = s.now()
	payload, err := json.Marshal(d)
	if err != nil {
		return apperrors.New(apperrors.ErrCodePersistence, "failed to encode draft", err)
	}

	record := draftRecord{
		Key:      d.Key(),
		ToolKind: string(d.ToolKind),
		ScopeKey: d.ScopeKey,
		Payload:  string(payload),
		SavedAt:  d.SavedAt,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
	if err != nil {
		return apperrors.New(apperrors.ErrCodePersistence, "failed to write draft", err)
	}
	return nil
}

func (s *sqliteStore) Load(ctx context.Context, scopeKey string, kind tools.Kind) (*Draft, error) {
	key := Key(scopeKey, kind)

	var record draftRecord
	err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to read draft", err)
	}

	d, stale := decodeLive([]byte(record.Payload), s.ttl, s.now())
	if stale {
		if err := s.db.WithContext(ctx).Delete(&draftRecord{}, "key = ?", key).Error; err != nil {
			return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to drop stale draft", err)
		}
		return nil, nil
	}
	return d, nil
}

func (s *sqliteStore) Delete(ctx context.Context, scopeKey string, kind tools.Kind) error {
	err := s.db.WithContext(ctx).Delete(&draftRecord{}, "key = ?", Key(scopeKey, kind)).Error
	if err != nil {
		return apperrors.New(apperrors.ErrCodePersistence, "failed to delete draft", err)
	}
	return nil
}

func (s *sqliteStore) List(ctx context.Context) ([]*Draft, error) {
	var records []draftRecord
	if err := s.db.WithContext(ctx).Order("key").Find(&records).Error; err != nil {
		return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to list drafts", err)
	}

	now := s.now()
	var drafts []*Draft
	for _, record := range records {
		d, stale := decodeLive([]byte(record.Payload), s.ttl, now)
		if stale {
			_ = s.db.WithContext(ctx).Delete(&draftRecord{}, "key = ?", record.Key).Error
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
