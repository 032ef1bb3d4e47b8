package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/infogenius-ai/chat-relay/internal/config"
	"github.com/infogenius-ai/chat-relay/internal/model/chat"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestTimestamperFormatsIndiaTime(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 34, 5, 0, time.UTC)
	assert.Equal(t, "19/10/2026, 3:04:05 pm", NewTimestamper(nil).Format(at))

	morning := time.Date(2026, 1, 2, 0, 0, 7, 0, time.UTC)
	assert.Equal(t, "2/1/2026, 5:30:07 am", NewTimestamper(nil).Format(morning))
}

func TestLoadTimestamper(t *testing.T) {
	ts, err := LoadTimestamper("UTC")
	require.NoError(t, err)
	assert.Equal(t, "19/10/2026, 9:34:05 am", ts.Format(time.Date(2026, 10, 19, 9, 34, 5, 0, time.UTC)))

	_, err = LoadTimestamper("Mars/Olympus")
	assert.Error(t, err)
}

func TestGormSinkRecords(t *testing.T) {
	db := openTestDB(t)
	sink, err := NewGormSink(db, true)
	require.NoError(t, err)

	created := time.Date(2026, 10, 19, 9, 34, 5, 0, time.UTC)
	err = sink.Record(context.Background(), chat.Exchange{
		SessionID: "s1",
		UserText:  "see docs",
		BotText:   `<a href="https://go.dev" target="_blank">https://go.dev</a>`,
		Timestamp: "19/10/2026, 3:04:05 pm",
		CreatedAt: created,
	})
	require.NoError(t, err)

	var rows []Record
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "s1", rows[0].SessionID)
	assert.Equal(t, "see docs", rows[0].User)
	assert.Contains(t, rows[0].Bot, "<a href=")
	assert.Equal(t, "19/10/2026, 3:04:05 pm", rows[0].Timestamp)
}

func TestOpenSQLiteFile(t *testing.T) {
	sink, closeFn, err := Open(config.ArchiveConfig{
		Driver:      config.ArchiveSQLite,
		DSN:         filepath.Join(t.TempDir(), "history.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	require.NoError(t, sink.Record(context.Background(), chat.Exchange{UserText: "u", BotText: "b", Timestamp: "t"}))
}

func TestOpenNone(t *testing.T) {
	sink, closeFn, err := Open(config.ArchiveConfig{Driver: config.ArchiveNone})
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, sink)
	assert.NoError(t, closeFn())

	_, _, err = Open(config.ArchiveConfig{Driver: "mongo"})
	assert.Error(t, err)
}

type failingSink struct{ calls int }

func (f *failingSink) Record(context.Context, chat.Exchange) error {
	f.calls++
	return errors.New("disk full")
}

type capturingSink struct{ got []chat.Exchange }

func (c *capturingSink) Record(_ context.Context, ex chat.Exchange) error {
	c.got = append(c.got, ex)
	return nil
}

func TestRecorderSwallowsFailures(t *testing.T) {
	sink := &failingSink{}
	var seen *PersistenceError
	rec := NewRecorder(sink, nil, logger.Nop(), WithErrorHook(func(err *PersistenceError) { seen = err }))

	rec.Record(context.Background(), chat.Exchange{SessionID: "s1", UserText: "u", BotText: "b"})

	assert.Equal(t, 1, sink.calls)
	require.NotNil(t, seen)
	assert.Equal(t, "s1", seen.SessionID)
	assert.EqualError(t, errors.Unwrap(seen), "disk full")
}

func TestRecorderFillsTimestamp(t *testing.T) {
	sink := &capturingSink{}
	fixed := time.Date(2026, 10, 19, 9, 34, 5, 0, time.UTC)
	rec := NewRecorder(sink, NewTimestamper(nil), nil, WithClock(func() time.Time { return fixed }))

	rec.Record(context.Background(), chat.Exchange{UserText: "u", BotText: "b"})

	require.Len(t, sink.got, 1)
	assert.Equal(t, "19/10/2026, 3:04:05 pm", sink.got[0].Timestamp)
	assert.Equal(t, fixed, sink.got[0].CreatedAt)
}
