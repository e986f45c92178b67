package db

import (
	"gorm.io/gorm"
)

// RunMigrations creates barang and transaksi when absent. Safe to run on
// every start-up.
func RunMigrations(db *DB) error {
	if err := db.AutoMigrate(&Item{}, &Sale{}); err != nil {
		return err
	}

	if err := createIndexes(db.DB); err != nil {
		return err
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// per-item sales history
		`CREATE INDEX IF NOT EXISTS idx_transaksi_kode_tanggal ON transaksi(kode_barang, tanggal)`,
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}

	return nil
}
