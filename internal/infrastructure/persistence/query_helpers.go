package persistence

import (
	"errors"
	"strings"

	"github.com/erp/pos/internal/domain/shared"
	"gorm.io/gorm"
)

// paginate applies offset and limit from a normalized filter
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// orderBy applies a whitelisted sort, falling back to defaultOrder
func orderBy(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultOrder string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "")
	if field == "" {
		return query.Order(defaultOrder)
	}
	return query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
}

// likePattern builds a case-insensitive LIKE pattern; callers compare against LOWER(column)
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// mapNotFound converts gorm.ErrRecordNotFound into the given domain error
func mapNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
