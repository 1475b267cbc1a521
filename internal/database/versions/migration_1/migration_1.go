package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

type Review struct {
	Source string `gorm:"size:100"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&Review{}, "Source"); err != nil {
		return fmt.Errorf("error adding Source column: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&Review{}, "Source"); err != nil {
		return fmt.Errorf("error dropping Source column: %w", err)
	}

	return nil
}
