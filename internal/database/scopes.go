package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/tax-task-tracker/internal/utils"
)

// Paginate restricts a query to one page. A zero limit keeps every row.
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Limit <= 0 {
			return db
		}
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// NewestFirst orders by a timestamp column, ties broken by descending id.
func NewestFirst(column string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column + " DESC").Order("id DESC")
	}
}
