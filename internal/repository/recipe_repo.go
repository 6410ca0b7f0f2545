package repository

import (
	"context"
	"fmt"

	"github.com/feastly/feastly/internal/domain"
	"gorm.io/gorm"
)

// RecipeRepository handles recipe row operations.
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new RecipeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *RecipeRepository: repository instance bound to db.
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a new recipe row. The embedding must already be set; rows
// never exist without one.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - recipe: recipe row to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// GetByID retrieves a recipe by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe ID.
// Returns:
//   - *domain.Recipe: recipe row if found.
//   - error: gorm.ErrRecordNotFound if no row matches.
func (r *RecipeRepository) GetByID(ctx context.Context, id uint) (*domain.Recipe, error) {
	var recipe domain.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GetByIDs retrieves recipes by a list of IDs. The result order is the
// store's, not the input's; callers that need ranked order reassemble it.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: list of recipe IDs.
// Returns:
//   - []domain.Recipe: matching recipe rows.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) GetByIDs(ctx context.Context, ids []uint) ([]domain.Recipe, error) {
	if len(ids) == 0 {
		return []domain.Recipe{}, nil
	}
	var recipes []domain.Recipe
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to get recipes by IDs: %w", err)
	}
	return recipes, nil
}

// Update persists the full recipe row in a single statement. Content fields,
// moderation state, and embedding land together; there is no window where a
// row carries new metadata with a stale embedding.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - recipe: recipe row with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *RecipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	return r.db.WithContext(ctx).Save(recipe).Error
}

// SetState updates the moderation state and optionally reassigns the author.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe ID.
//   - state: new moderation state.
//   - newAuthorID: author to transfer ownership to; nil leaves it unchanged.
// Returns:
//   - int64: number of rows updated (zero means not found).
//   - error: non-nil if the update fails.
func (r *RecipeRepository) SetState(ctx context.Context, id uint, state domain.ModerationState, newAuthorID *string) (int64, error) {
	updates := map[string]interface{}{"state": state}
	if newAuthorID != nil {
		updates["author_id"] = *newAuthorID
	}
	res := r.db.WithContext(ctx).Model(&domain.Recipe{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

// DeleteOwned removes a recipe only when it belongs to the given author.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe ID.
//   - authorID: owner the delete is restricted to.
// Returns:
//   - int64: number of rows deleted (zero means no owned row matched).
//   - error: non-nil if the delete fails.
func (r *RecipeRepository) DeleteOwned(ctx context.Context, id uint, authorID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&domain.Recipe{})
	return res.RowsAffected, res.Error
}

// SampleApproved returns up to limit approved recipes in uniform random order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of rows to return.
// Returns:
//   - []domain.Recipe: randomly ordered approved recipes.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) SampleApproved(ctx context.Context, limit int) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	if err := r.db.WithContext(ctx).
		Where("state = ?", domain.StateApproved).
		Order("RANDOM()").
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// SampleByIDs returns up to limit recipes drawn from the given id set in
// uniform random order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: candidate recipe IDs.
//   - limit: maximum number of rows to return.
// Returns:
//   - []domain.Recipe: randomly ordered recipes from the id set.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) SampleByIDs(ctx context.Context, ids []uint, limit int) ([]domain.Recipe, error) {
	if len(ids) == 0 {
		return []domain.Recipe{}, nil
	}
	var recipes []domain.Recipe
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("RANDOM()").
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// ListByState retrieves recipes in a given moderation state, oldest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - state: moderation state to filter by.
// Returns:
//   - []domain.Recipe: matching recipe rows.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) ListByState(ctx context.Context, state domain.ModerationState) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	if err := r.db.WithContext(ctx).
		Where("state = ?", state).
		Order("created_at ASC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// CountByState counts recipes by moderation state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - state: moderation state to count.
// Returns:
//   - int64: number of matching rows.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) CountByState(ctx context.Context, state domain.ModerationState) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Recipe{}).Where("state = ?", state).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
