package repository

import (
	"context"

	"github.com/feastly/feastly/internal/domain"
	"gorm.io/gorm"
)

// ViewRepository handles append-only view events.
type ViewRepository struct {
	db *gorm.DB
}

// NewViewRepository creates a new ViewRepository.
func NewViewRepository(db *gorm.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

// Append inserts a view event. There is no uniqueness constraint; repeat
// views of the same recipe accumulate.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - event: view event to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *ViewRepository) Append(ctx context.Context, event *domain.ViewEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// History retrieves the recipes a viewer has seen, most recent view first,
// recipe id ascending as tie-break.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - viewerID: viewer whose history is listed.
//   - limit: maximum number of rows to return.
//   - offset: number of rows to skip.
// Returns:
//   - []domain.Recipe: recipes joined through view events.
//   - error: non-nil if the query fails.
func (r *ViewRepository) History(ctx context.Context, viewerID string, limit, offset int) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	if err := r.db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Joins("INNER JOIN view_events ON view_events.recipe_id = recipes.id").
		Where("view_events.viewer_id = ?", viewerID).
		Order("view_events.created_at DESC, recipes.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}
