// Package sqlite keeps the record log in a SQLite table through gorm.
// Record bodies are canonical CBOR; matching happens in Go.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/dindex-chat/internal/adapters/store/poll"
	"github.com/bnema/dindex-chat/internal/codec"
	"github.com/bnema/dindex-chat/internal/domain"
	"github.com/bnema/dindex-chat/internal/ports"
	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	PathKey       = "store.sqlite.path"
	databaseDir   = ".dindex"
	databaseFile  = "records.db"
	dirMode       = 0o700
	busyTimeoutMS = 5000
)

// recordRow is one published record. ID orders the log.
type recordRow struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Digest    string    `gorm:"index;not null"`
	Body      []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (recordRow) TableName() string {
	return "records"
}

type Store struct {
	db     *gorm.DB
	path   string
	logger *slog.Logger
}

var _ ports.RecordStore = (*Store)(nil)

func NewStore(cfg *viper.Viper, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	path := cfg.GetString(PathKey)
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, databaseDir, databaseFile)
	}

	return Open(path, logger)
}

func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %w", domain.ErrStoreUnavailable, err)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL", path, busyTimeoutMS)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open database %s: %w", domain.ErrStoreUnavailable, path, err)
	}

	if err := db.AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate database: %w", domain.ErrStoreUnavailable, err)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Publish(ctx context.Context, rec domain.Record) error {
	body, err := codec.EncodeFields(rec.Fields())
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	row := recordRow{
		Digest:    rec.Digest(),
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: insert record: %w", domain.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *Store) Query(ctx context.Context, pattern domain.Pattern) ([]domain.Record, error) {
	matcher, err := pattern.Compile()
	if err != nil {
		return nil, err
	}

	records, _, err := s.fetch(ctx, 0)
	if err != nil {
		return nil, err
	}

	return matcher.Filter(records), nil
}

func (s *Store) Listen(ctx context.Context, pattern domain.Pattern, opts ports.ListenOptions, handler ports.ListenHandler) error {
	matcher, err := pattern.Compile()
	if err != nil {
		return err
	}

	cursor, err := s.head(ctx)
	if err != nil {
		return err
	}

	return poll.Listen(ctx, cursor, s.fetch, matcher, opts, handler)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *Store) head(ctx context.Context) (uint64, error) {
	var head uint64
	err := s.db.WithContext(ctx).Model(&recordRow{}).Select("COALESCE(MAX(id), 0)").Scan(&head).Error
	if err != nil {
		return 0, fmt.Errorf("%w: read log head: %w", domain.ErrStoreUnavailable, err)
	}

	return head, nil
}

// fetch returns the decodable records after cursor. Undecodable rows are
// skipped but still advance the cursor.
func (s *Store) fetch(ctx context.Context, cursor uint64) ([]domain.Record, uint64, error) {
	var rows []recordRow
	err := s.db.WithContext(ctx).Where("id > ?", cursor).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, cursor, fmt.Errorf("%w: select records: %w", domain.ErrStoreUnavailable, err)
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		cursor = row.ID

		fields, err := codec.DecodeFields(row.Body)
		if err != nil {
			s.logger.Warn("skipping undecodable record", "id", row.ID, "error", err)
			continue
		}
		records = append(records, domain.NewRecord(fields))
	}

	return records, cursor, nil
}
