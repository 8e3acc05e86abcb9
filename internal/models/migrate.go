package models

import "gorm.io/gorm"

// Migrate 执行全部表结构迁移
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Voice{},
		&Output{},
		&ActivityLog{},
	)
}
