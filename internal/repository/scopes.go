package repository

import "gorm.io/gorm"

// noEliminados is the default predicate every read applies: soft-deleted rows
// never leave the data-access layer.
func noEliminados(db *gorm.DB) *gorm.DB {
	return db.Where("eliminado = false")
}

// soloActivos additionally filters deactivated rows where the caller needs
// operable records (e.g. motorizados eligible for assignment).
func soloActivos(db *gorm.DB) *gorm.DB {
	return db.Where("activo = true AND eliminado = false")
}
