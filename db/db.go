package db

import (
	"fmt"
	"time"

	"Gin_postgres_redis_inventory/config"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to driver ("postgres" | "mysql" | "sqlite").
func Open(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), gcfg)
	case "mysql":
		return gorm.Open(mysql.Open(dsn), gcfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, err
		}
		// one writer; SELECT ... FOR UPDATE does not exist here
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// ConnectDB opens and migrates the configured database.
func ConnectDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate models: %w", err)
	}
	logs.Logger.WithField("driver", cfg.Database.Driver).Info("database connected")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Operator{},
		&models.Item{},
		&models.Peripheral{},
		&models.EquipmentPeripheral{},
		&models.HistoryEntry{},
	); err != nil {
		return err
	}

	// MySQL has no partial indexes; uniqueness among active rows is still
	// checked by the stores.
	if db.Dialector.Name() == "mysql" {
		return nil
	}

	// a nota fiscal belongs to at most one active item
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_active_nota_fiscal
	  ON %s (nota_fiscal)
	  WHERE is_active AND nota_fiscal <> '';
	`, models.ItemTable, models.ItemTable)).Error; err != nil {
		return err
	}

	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_active_identificador
	  ON %s (identificador)
	  WHERE is_active;
	`, models.PeripheralTable, models.PeripheralTable)).Error; err != nil {
		return err
	}

	// per item ledger scans (reversal counterpart, last loan)
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_item_operation_id
	  ON %s (item_id, operation, id DESC);
	`, models.HistoryTable, models.HistoryTable)).Error; err != nil {
		return err
	}

	return nil
}
