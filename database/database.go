package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/models"
)

// gormWriter sends gorm's own warnings and errors through zerolog.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Connect opens the database for the given driver ("postgres" or "sqlite").
// Missing rows are expected during template fallback, so gorm does not report
// them; the store maps them to NotFoundError instead.
func Connect(driver, dsn string, log *logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{log: log.DbLogger("gorm")}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows a single writer; one connection keeps transactions simple.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates every table the server uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Scenario{},
		&models.Objective{},
		&models.Persona{},
		&models.PromptTemplate{},
		&models.Conversation{},
		&models.Message{},
	)
}
