package db

import (
	"context"
	"fmt"
	"immigration_crm_go/config"
	"immigration_crm_go/models"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Gateway is the persistence gateway every service is built on.
// It is constructed explicitly and handed to services; there is no package-level handle.
type Gateway struct {
	DB     *gorm.DB
	Driver string
}

// Open connects to the configured store.
// sqlite uses a local file in WAL mode, libsql talks to a remote Turso database
// and postgres to a managed Postgres instance.
func Open(cfg *config.Config, log logrus.FieldLogger) (*Gateway, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Warn
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.WithField("driver", cfg.DBDriver).Info("Database connection established")
	return &Gateway{DB: gormDB, Driver: cfg.DBDriver}, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DBDriverSQLite, "":
		// Enable WAL mode for better concurrency support
		return sqlite.Open(cfg.DBPath + "?_journal_mode=WAL&_foreign_keys=on"), nil
	case config.DBDriverLibSQL:
		if cfg.TursoDatabaseURL == "" {
			return nil, fmt.Errorf("TURSO_DATABASE_URL is required for the libsql driver")
		}
		dsn := cfg.TursoDatabaseURL
		if cfg.TursoAuthToken != "" {
			dsn += "?authToken=" + cfg.TursoAuthToken
		}
		return sqlite.New(sqlite.Config{DriverName: "libsql", DSN: dsn}), nil
	case config.DBDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		return postgres.Open(cfg.DatabaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// OpenMemory opens an isolated in-memory sqlite gateway.
// Each call gets its own database so tests do not share state.
func OpenMemory() (*Gateway, error) {
	name := "mem_" + uuid.New().String()
	gormDB, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return &Gateway{DB: gormDB, Driver: config.DBDriverSQLite}, nil
}

// AllModels lists every table the application owns, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.Client{},
		&models.Service{},
		&models.ServiceMilestone{},
		&models.Case{},
		&models.CaseMilestone{},
		&models.Notification{},
		&models.WorkHours{},
		&models.LawyerPayment{},
		&models.GeneralExpense{},
		&models.MonthlySummary{},
		&models.OrderSync{},
		&models.AuditLog{},
	}
}

// Migrate runs database migrations for all models
func (g *Gateway) Migrate() error {
	if g == nil || g.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := g.DB.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Ping checks the underlying connection
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (g *Gateway) Close() error {
	if g == nil || g.DB == nil {
		return nil
	}

	sqlDB, err := g.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
