package repository

import (
	"warbler/internal/database"

	"gorm.io/gorm"
)

// Result limits shared by the list queries.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// ClampPage normalizes a limit/offset pair.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
