package repository

import (
	"context"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SearchLogRepository persists served searches.
type SearchLogRepository struct {
	db *gorm.DB
}

// NewSearchLogRepository creates a new SearchLogRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SearchLogRepository: repository instance bound to db.
func NewSearchLogRepository(db *gorm.DB) *SearchLogRepository {
	return &SearchLogRepository{db: db}
}

// Create inserts a search log, assigning an ID when empty.
func (r *SearchLogRepository) Create(ctx context.Context, entry *domain.SearchLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// Recent returns the latest logs, newest first.
func (r *SearchLogRepository) Recent(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []domain.SearchLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Count returns the number of recorded searches.
func (r *SearchLogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.SearchLog{}).Count(&n).Error
	return n, err
}
