package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coachmybody/server/models"
)

var db *gorm.DB

// defaultCatalog is inserted when the exercises table is empty.
var defaultCatalog = []models.Exercise{
	{Name: "Squat", Category: "legs", Description: "Barbell back squat"},
	{Name: "Lunge", Category: "legs", Description: "Alternating forward lunge"},
	{Name: "Deadlift", Category: "back", Description: "Conventional barbell deadlift"},
	{Name: "Pull Up", Category: "back", Description: "Bodyweight pull up"},
	{Name: "Bench Press", Category: "chest", Description: "Flat barbell bench press"},
	{Name: "Push Up", Category: "chest", Description: "Bodyweight push up"},
	{Name: "Overhead Press", Category: "shoulders", Description: "Standing barbell press"},
	{Name: "Plank", Category: "core", Description: "Forearm plank hold"},
	{Name: "Crunch", Category: "core", Description: "Floor crunch"},
	{Name: "Burpee", Category: "cardio", Description: "Squat thrust with jump"},
}

// InitDatabase opens the configured database, migrates every model and seeds
// the exercise catalog on first start.
func InitDatabase(cfg AppConfig) *gorm.DB {
	if db != nil {
		return db
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Derive GORM's level from the app LogLevel and keep slow-sql threshold high to reduce noise
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}
	if cfg.DBDriver == "sqlite" {
		// one writer; a shared in-memory database disappears with its last connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	// Ping at boot so network and auth problems surface before the first query
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatalf("auto migration failed: %v", err)
	}

	db = conn
	return db
}

// Migrate creates or extends the schema and seeds the catalog when empty.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return err
	}
	return seedCatalog(conn)
}

func seedCatalog(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Exercise{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	catalog := make([]models.Exercise, len(defaultCatalog))
	copy(catalog, defaultCatalog)
	return conn.Create(&catalog).Error
}

// dialectorFor picks the gorm driver for cfg.DBDriver. DatabaseURI, when set,
// is passed through unchanged.
func dialectorFor(cfg AppConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.DBDriver) {
	case "", "mysql":
		dsn := cfg.DatabaseURI
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		}
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		dsn := cfg.DatabaseURI
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		dsn := cfg.DatabaseURI
		if dsn == "" {
			dsn = cfg.DBName + ".db"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL
		return logger.Info
	case "info", "", "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// DB provides access to the initialized gorm DB instance.
func DB() *gorm.DB {
	if db == nil {
		log.Fatal("database not initialized, call InitDatabase first")
	}
	return db
}
