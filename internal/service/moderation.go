package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"github.com/feastly/feastly/internal/domain"
	"github.com/feastly/feastly/internal/logger"
	"github.com/feastly/feastly/internal/storage"
	"github.com/google/uuid"
)

// ModerationService owns the recipe lifecycle: create as draft, edit back to
// draft, approve, delete. The embedding is computed before any row exists and
// recomputed from the post-edit content, so an approved recipe always carries
// an embedding matching its persisted content.
type ModerationService struct {
	recipes  RecipeStore
	index    VectorIndex
	embedder EmbeddingProvider
	storage  storage.ObjectStorage
	policy   ReassignmentPolicy
}

// NewModerationService creates a new moderation service.
// Parameters:
//   - recipes: relational recipe store.
//   - index: ANN index over embeddings.
//   - embedder: embedding oracle client.
//   - objectStorage: thumbnail storage; nil disables thumbnail upload.
//   - policy: approval-time ownership transfer rule; nil means never transfer.
// Returns:
//   - *ModerationService: initialized service.
func NewModerationService(
	recipes RecipeStore,
	index VectorIndex,
	embedder EmbeddingProvider,
	objectStorage storage.ObjectStorage,
	policy ReassignmentPolicy,
) *ModerationService {
	if policy == nil {
		policy = NoReassignment{}
	}
	return &ModerationService{
		recipes:  recipes,
		index:    index,
		embedder: embedder,
		storage:  objectStorage,
		policy:   policy,
	}
}

// CreateRecipeInput is the payload for creating a recipe.
type CreateRecipeInput struct {
	Title        string   `json:"title" binding:"required"`
	Thumbnail    string   `json:"thumbnail"`
	URL          *string  `json:"url"`
	Ingredients  []string `json:"ingredients"`
	Directions   []string `json:"directions"`
	Tags         []string `json:"tags"`
	Notes        *string  `json:"notes"`
	Description  *string  `json:"description"`
	Calories     float32  `json:"calories"`
	Fat          float32  `json:"fat"`
	SaturatedFat float32  `json:"saturated_fat"`
	Protein      float32  `json:"protein"`
	Sodium       float32  `json:"sodium"`
	Sugar        float32  `json:"sugar"`
}

func (in *CreateRecipeInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.E(domain.KindValidation, "title must not be empty")
	}
	nutrition := map[string]float32{
		"calories":      in.Calories,
		"fat":           in.Fat,
		"saturated_fat": in.SaturatedFat,
		"protein":       in.Protein,
		"sodium":        in.Sodium,
		"sugar":         in.Sugar,
	}
	for name, v := range nutrition {
		if v < 0 {
			return domain.Ef(domain.KindValidation, "%s must be non-negative", name)
		}
	}
	return nil
}

// Create embeds the new recipe's content and persists it as a draft. The
// oracle call comes first: if it fails, nothing is persisted anywhere.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - viewer: resolved caller identity; becomes the author.
//   - input: recipe payload.
// Returns:
//   - *domain.Recipe: the created draft.
//   - error: validation, embedding-unavailable, or conflict on duplicate title.
func (s *ModerationService) Create(ctx context.Context, viewer domain.Viewer, input *CreateRecipeInput) (*domain.Recipe, error) {
	if viewer.Anonymous() {
		return nil, domain.E(domain.KindUnauthorized, "authentication required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	recipe := &domain.Recipe{
		AuthorID:     viewer.ID,
		State:        domain.StateDraft,
		Title:        input.Title,
		URL:          input.URL,
		Ingredients:  input.Ingredients,
		Directions:   input.Directions,
		Tags:         input.Tags,
		Notes:        input.Notes,
		Description:  input.Description,
		Calories:     input.Calories,
		Fat:          input.Fat,
		SaturatedFat: input.SaturatedFat,
		Protein:      input.Protein,
		Sodium:       input.Sodium,
		Sugar:        input.Sugar,
	}

	vector, err := s.embedder.Embed(ctx, recipe.EmbeddingText())
	if err != nil {
		return nil, err
	}
	recipe.Embedding = vector

	thumbnail, err := s.storeThumbnail(ctx, input.Thumbnail)
	if err != nil {
		return nil, err
	}
	recipe.Thumbnail = thumbnail

	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, storeErr(err, "failed to create recipe")
	}

	if err := s.index.Upsert(ctx, recipe.ID, recipe.Embedding, recipe.State, recipe.AuthorID); err != nil {
		return nil, storeErr(err, "failed to index recipe")
	}

	logger.CtxInfo(ctx, "Recipe created: id=%d, author=%s", recipe.ID, recipe.AuthorID)
	return recipe, nil
}

// Edit applies a partial update to a recipe the viewer owns. The state is
// forced back to draft unconditionally, even when no ranked field changed,
// and the embedding is recomputed from the post-edit content. Content,
// state, and embedding are written as one row update so no reader can see a
// new-content/old-embedding pairing.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - viewer: resolved caller identity; must own the recipe.
//   - id: recipe id.
//   - patch: partial field set; unset fields are left unchanged, explicit
//     nulls clear nullable fields.
// Returns:
//   - *domain.Recipe: the updated draft.
//   - error: not-found if the viewer owns no such recipe.
func (s *ModerationService) Edit(ctx context.Context, viewer domain.Viewer, id uint, patch *domain.RecipePatch) (*domain.Recipe, error) {
	if viewer.Anonymous() {
		return nil, domain.E(domain.KindUnauthorized, "authentication required")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "recipe not found")
	}
	// Ownership failures are indistinguishable from a missing row.
	if recipe.AuthorID != viewer.ID {
		return nil, domain.E(domain.KindNotFound, "recipe not found")
	}

	if thumb, ok := patch.Thumbnail.Value(); ok {
		stored, err := s.storeThumbnail(ctx, thumb)
		if err != nil {
			return nil, err
		}
		patch.Thumbnail = domain.NewField(stored)
	}

	patch.Apply(recipe)
	recipe.State = domain.StateDraft

	vector, err := s.embedder.Embed(ctx, recipe.EmbeddingText())
	if err != nil {
		return nil, err
	}
	recipe.Embedding = vector

	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, storeErr(err, "failed to update recipe")
	}

	if err := s.index.Upsert(ctx, recipe.ID, recipe.Embedding, recipe.State, recipe.AuthorID); err != nil {
		return nil, storeErr(err, "failed to index recipe")
	}

	logger.CtxInfo(ctx, "Recipe edited: id=%d, author=%s", recipe.ID, recipe.AuthorID)
	return recipe, nil
}

// Approve marks a recipe approved. Idempotent on the state flag: approving
// an already-approved recipe does not error. The reassignment policy runs on
// every approval, including repeats - that re-trigger is part of the
// contract, not an accident of the flag being idempotent.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - viewer: resolved caller identity; must be an admin.
//   - id: recipe id.
// Returns:
//   - error: forbidden for non-admins, not-found for missing rows.
func (s *ModerationService) Approve(ctx context.Context, viewer domain.Viewer, id uint) error {
	if viewer.Anonymous() {
		return domain.E(domain.KindUnauthorized, "authentication required")
	}
	if !viewer.Admin {
		return domain.E(domain.KindForbidden, "admin privileges required")
	}

	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return storeErr(err, "recipe not found")
	}

	newAuthorID := s.policy.Reassign(viewer.ID, recipe)

	if _, err := s.recipes.SetState(ctx, id, domain.StateApproved, newAuthorID); err != nil {
		return storeErr(err, "failed to approve recipe")
	}

	if newAuthorID != nil {
		// Ownership changed; rewrite the whole point payload.
		if err := s.index.Upsert(ctx, id, recipe.Embedding, domain.StateApproved, *newAuthorID); err != nil {
			return storeErr(err, "failed to update index state")
		}
	} else if err := s.index.SetState(ctx, id, domain.StateApproved); err != nil {
		return storeErr(err, "failed to update index state")
	}

	logger.CtxInfo(ctx, "Recipe approved: id=%d, approver=%s", id, viewer.ID)
	return nil
}

// Delete removes a recipe the viewer owns, along with its index point.
// Dependent view events cascade away in the store.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - viewer: resolved caller identity; must own the recipe.
//   - id: recipe id.
// Returns:
//   - error: not-found if the viewer owns no such recipe.
func (s *ModerationService) Delete(ctx context.Context, viewer domain.Viewer, id uint) error {
	if viewer.Anonymous() {
		return domain.E(domain.KindUnauthorized, "authentication required")
	}

	rows, err := s.recipes.DeleteOwned(ctx, id, viewer.ID)
	if err != nil {
		return storeErr(err, "failed to delete recipe")
	}
	if rows == 0 {
		return domain.E(domain.KindNotFound, "recipe not found")
	}

	if err := s.index.Delete(ctx, id); err != nil {
		return storeErr(err, "failed to remove recipe from index")
	}

	logger.CtxInfo(ctx, "Recipe deleted: id=%d, author=%s", id, viewer.ID)
	return nil
}

// storeThumbnail uploads an inline data-URI thumbnail and returns its public
// URL. Plain URLs pass through unchanged; re-encoding is upstream's job.
func (s *ModerationService) storeThumbnail(ctx context.Context, thumbnail string) (string, error) {
	if thumbnail == "" || !strings.HasPrefix(thumbnail, "data:") {
		return thumbnail, nil
	}
	if s.storage == nil {
		return "", domain.E(domain.KindValidation, "inline thumbnails are not supported")
	}

	meta, encoded, found := strings.Cut(strings.TrimPrefix(thumbnail, "data:"), ",")
	if !found {
		return "", domain.E(domain.KindValidation, "malformed thumbnail data URI")
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", domain.Wrap(domain.KindValidation, "malformed thumbnail payload", err)
	}

	key := "thumbnails/" + uuid.New().String()
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", domain.Wrap(domain.KindStoreFailure, "failed to store thumbnail", err)
	}

	return s.storage.GetURL(key), nil
}
