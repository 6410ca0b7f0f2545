package service

import (
	"context"
	"errors"

	"github.com/feastly/feastly/internal/domain"
	"github.com/feastly/feastly/internal/repository"
	"gorm.io/gorm"
)

// RecipeStore is the relational side of the catalog: rows, single-row CRUD,
// and random sampling. Implemented by repository.RecipeRepository.
type RecipeStore interface {
	Create(ctx context.Context, recipe *domain.Recipe) error
	GetByID(ctx context.Context, id uint) (*domain.Recipe, error)
	GetByIDs(ctx context.Context, ids []uint) ([]domain.Recipe, error)
	Update(ctx context.Context, recipe *domain.Recipe) error
	SetState(ctx context.Context, id uint, state domain.ModerationState, newAuthorID *string) (int64, error)
	DeleteOwned(ctx context.Context, id uint, authorID string) (int64, error)
	SampleApproved(ctx context.Context, limit int) ([]domain.Recipe, error)
	SampleByIDs(ctx context.Context, ids []uint, limit int) ([]domain.Recipe, error)
	ListByState(ctx context.Context, state domain.ModerationState) ([]domain.Recipe, error)
}

// VectorIndex is the ANN side of the catalog: similarity ranking and
// threshold membership over stored embeddings. Implemented by
// repository.QdrantRepository.
type VectorIndex interface {
	Upsert(ctx context.Context, id uint, vector []float32, state domain.ModerationState, authorID string) error
	SetState(ctx context.Context, id uint, state domain.ModerationState) error
	Delete(ctx context.Context, id uint) error
	Rank(ctx context.Context, vector []float32, limit, offset int) ([]repository.RankedID, error)
	Neighbors(ctx context.Context, vector []float32, minSimilarity float32, excludeID uint, limit int) ([]uint, error)
}

// ViewStore records and lists view events. Implemented by
// repository.ViewRepository.
type ViewStore interface {
	Append(ctx context.Context, event *domain.ViewEvent) error
	History(ctx context.Context, viewerID string, limit, offset int) ([]domain.Recipe, error)
}

// storeErr translates persistence-layer errors into domain error kinds.
func storeErr(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Wrap(domain.KindNotFound, message, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Wrap(domain.KindConflict, message, err)
	default:
		return domain.Wrap(domain.KindStoreFailure, message, err)
	}
}
