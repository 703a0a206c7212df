package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/examcore/exam-service/internal/repositories"
)

// applyPaginationAndSort applies limit/offset and ordering to a query.
// allowedSorts whitelists sortable columns so user input never reaches
// the ORDER BY clause directly.
func applyPaginationAndSort(query *gorm.DB, limit, offset int, sortBy, sortOrder string, allowedSorts map[string]bool) *gorm.DB {
	if sortBy != "" && allowedSorts[sortBy] {
		order := "DESC"
		if sortOrder == "asc" {
			order = "ASC"
		}
		query = query.Order(fmt.Sprintf("%s %s", sortBy, order))
	} else {
		query = query.Order("created_at DESC")
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// applyAttemptFilters narrows an attempt query by the optional filter fields.
func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	return query
}

// getDB returns the transaction handle when one is supplied, otherwise the
// repository's own connection bound to ctx.
func getDB(ctx context.Context, db *gorm.DB, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
