package infra

import (
	"fmt"

	"github.com/pirela/sistema-guia/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all tables, then applies the idempotent SQL patches GORM cannot express
// (the guide-number sequence and a couple of partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates the schema. Also used by test harnesses that
// bring up their own database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Producto{},
		&model.Guia{},
		&model.GuiaProducto{},
		&model.HistorialEstado{},
		&model.Novedad{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate does not cover.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Atomic numbering for manually created guides (numero "G-000123").
		`CREATE SEQUENCE IF NOT EXISTS guias_numero_seq START 1`,
		// The dispatch-sheet query and the motorizado list both hit this.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_guias_motorizado_estado') THEN
		    CREATE INDEX idx_guias_motorizado_estado
		        ON guias (motorizado_asignado, estado)
		        WHERE eliminado = false;
		  END IF;
		END $$`,
		// Novedades joined to historial by FK on the detail view.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_novedades_historial') THEN
		    CREATE INDEX idx_novedades_historial
		        ON novedades (historial_estado_id)
		        WHERE historial_estado_id IS NOT NULL;
		  END IF;
		END $$`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
