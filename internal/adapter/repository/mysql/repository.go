// Package mysql stores sandbox data through gorm. MySQL is the deployed
// database; SQLite backs local runs and tests.
package mysql

import (
	"errors"

	"gorm.io/gorm"

	"mini-los/internal/sandbox"
)

// Migrate creates or updates every sandbox table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(sandbox.Models()...)
}

// translate maps gorm's missing-row error onto the sandbox sentinel.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sandbox.ErrNotFound
	}
	return err
}

// NewRepos binds every repository to db.
func NewRepos(db *gorm.DB) sandbox.Repos {
	return sandbox.Repos{
		Users:        &UserRepository{db: db},
		Applications: &ApplicationRepository{db: db},
		Results:      &ResultRepository{db: db},
	}
}
