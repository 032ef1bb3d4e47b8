package archive

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/infogenius-ai/chat-relay/internal/config"
	"github.com/infogenius-ai/chat-relay/internal/model/chat"
)

// Record is the stored row for one exchange.
type Record struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID string    `gorm:"column:session_id;size:64;index"`
	User      string    `gorm:"column:user;type:text;not null"`
	Bot       string    `gorm:"column:bot;type:text;not null"`
	Timestamp string    `gorm:"column:timestamp;size:64;not null"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (Record) TableName() string { return "my_history" }

// GormSink writes exchanges through gorm.
type GormSink struct {
	db *gorm.DB
}

var _ Sink = (*GormSink)(nil)

// NewGormSink wraps db, migrating the table when migrate is set.
func NewGormSink(db *gorm.DB, migrate bool) (*GormSink, error) {
	if migrate {
		if err := db.AutoMigrate(&Record{}); err != nil {
			return nil, fmt.Errorf("migrate archive table: %w", err)
		}
	}
	return &GormSink{db: db}, nil
}

func (s *GormSink) Record(ctx context.Context, exchange chat.Exchange) error {
	row := Record{
		SessionID: exchange.SessionID,
		User:      exchange.UserText,
		Bot:       exchange.BotText,
		Timestamp: exchange.Timestamp,
		CreatedAt: exchange.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert archive row: %w", err)
	}
	return nil
}

// DB exposes the handle for tests and shutdown.
func (s *GormSink) DB() *gorm.DB { return s.db }

// Close releases the underlying connection pool.
func (s *GormSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Open builds the sink selected by cfg. The returned close func is never nil.
func Open(cfg config.ArchiveConfig) (Sink, func() error, error) {
	noop := func() error { return nil }

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.ArchiveNone, "":
		return NopSink{}, noop, nil
	case config.ArchiveSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.ArchivePostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, noop, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, noop, fmt.Errorf("failed to connect to %s archive: %w", cfg.Driver, err)
	}

	sink, err := NewGormSink(db, cfg.AutoMigrate)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, noop, err
	}
	return sink, sink.Close, nil
}
