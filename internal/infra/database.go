package infra

import (
	"fmt"

	"merygarcia/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the
// schema up to date with RunMigrations.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
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
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

// RunMigrations creates / updates all tables, then applies the idempotent
// DDL AutoMigrate cannot express. Integration tests call it directly.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Cliente{},
		&model.Producto{},
		&model.Personal{},
		&model.TipoCambio{},
		&model.Comanda{},
		&model.ComandaItem{},
		&model.ComandaPago{},
		&model.Comprobante{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs DDL guarded by IF NOT EXISTS so re-running on an
// already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"partial index for the comprobante retry cron", `
CREATE INDEX IF NOT EXISTS idx_comprobantes_retry
    ON comprobantes (next_retry_at)
 WHERE estado = 'error'`},
		{"deposit balances never negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_clientes_sena_no_negativa') THEN
    ALTER TABLE clientes
      ADD CONSTRAINT chk_clientes_sena_no_negativa CHECK (sena_ars >= 0 AND sena_usd >= 0);
  END IF;
END $$`},
		{"comanda item quantities positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_comanda_items_cantidad') THEN
    ALTER TABLE comanda_items
      ADD CONSTRAINT chk_comanda_items_cantidad CHECK (cantidad >= 1);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
