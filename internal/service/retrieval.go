package service

import (
	"context"

	"github.com/feastly/feastly/internal/domain"
	"github.com/feastly/feastly/internal/logger"
	"github.com/feastly/feastly/internal/repository"
)

const (
	// defaultRandomLimit is the random feed page length when none is given.
	defaultRandomLimit = 25
	// defaultVectorLimit is the vector search page length when none is given.
	defaultVectorLimit = 10
	// maxLimit caps caller-supplied limits on random and vector queries.
	maxLimit = 100
	// recommendedLimit caps the randomized recommendation set.
	recommendedLimit = 25
)

// RetrievalConfig holds configuration for the retrieval engine.
type RetrievalConfig struct {
	PageSize               int
	VectorMinSimilarity    float32
	RecommendMinSimilarity float32
	CandidateLimit         int
}

// RetrievalService answers the discovery query shapes: ranked text search,
// autocomplete, direct vector search, item-to-item recommendation, the
// random feed, fetch-by-id, and the view history feed.
type RetrievalService struct {
	recipes  RecipeStore
	index    VectorIndex
	views    ViewStore
	embedder EmbeddingProvider
	cfg      RetrievalConfig
}

// NewRetrievalService creates a new retrieval service.
// Parameters:
//   - recipes: relational recipe store.
//   - index: ANN index over embeddings.
//   - views: view event store.
//   - embedder: embedding oracle client.
//   - cfg: retrieval configuration.
// Returns:
//   - *RetrievalService: initialized service.
func NewRetrievalService(
	recipes RecipeStore,
	index VectorIndex,
	views ViewStore,
	embedder EmbeddingProvider,
	cfg RetrievalConfig,
) *RetrievalService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 200
	}
	return &RetrievalService{
		recipes:  recipes,
		index:    index,
		views:    views,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Search embeds the query text and returns one page of approved recipes
// ordered by descending similarity, 25 per page. A page past the end of the
// ranking yields an empty list, not an error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - text: free-text query.
//   - page: zero-based page index.
// Returns:
//   - []domain.RecipeSearchResult: ranked page of results.
//   - error: non-nil if embedding or ranking fails.
func (s *RetrievalService) Search(ctx context.Context, text string, page int) ([]domain.RecipeSearchResult, error) {
	if page < 0 {
		return nil, domain.E(domain.KindValidation, "page must be non-negative")
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	ranked, err := s.index.Rank(ctx, vector, s.cfg.PageSize, s.cfg.PageSize*page)
	if err != nil {
		return nil, storeErr(err, "failed to rank recipes")
	}

	return s.hydrateRanked(ctx, ranked)
}

// Autocomplete embeds the partial text and returns the titles of the ten
// closest approved recipes. Each call pays a fresh oracle round trip.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - text: partial query text.
// Returns:
//   - []string: up to ten titles, most similar first.
//   - error: non-nil if embedding or ranking fails.
func (s *RetrievalService) Autocomplete(ctx context.Context, text string) ([]string, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	ranked, err := s.index.Rank(ctx, vector, 10, 0)
	if err != nil {
		return nil, storeErr(err, "failed to rank recipes")
	}

	results, err := s.hydrateRanked(ctx, ranked)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

// VectorSearch returns approved recipes whose similarity to the supplied
// vector passes the configured cutoff, in random order. With no vector it
// degrades to a plain random sample. Unlike Search this is gated, not
// ranked.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - vector: query embedding; nil falls back to sampling.
//   - limit: maximum results, 1..100, default 10.
// Returns:
//   - []domain.Recipe: randomly ordered matches.
//   - error: non-nil if the query fails.
func (s *RetrievalService) VectorSearch(ctx context.Context, vector []float32, limit int) ([]domain.Recipe, error) {
	if limit <= 0 {
		limit = defaultVectorLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if vector == nil {
		recipes, err := s.recipes.SampleApproved(ctx, limit)
		return recipes, storeErr(err, "failed to sample recipes")
	}

	if len(vector) != domain.EmbeddingDim {
		return nil, domain.Ef(domain.KindValidation, "vector must have %d dimensions", domain.EmbeddingDim)
	}

	ids, err := s.index.Neighbors(ctx, vector, s.cfg.VectorMinSimilarity, 0, s.cfg.CandidateLimit)
	if err != nil {
		return nil, storeErr(err, "failed to filter recipes by similarity")
	}

	recipes, err := s.recipes.SampleByIDs(ctx, ids, limit)
	return recipes, storeErr(err, "failed to sample recipes")
}

// Recommended returns up to 25 approved recipes similar to the seed,
// excluding the seed itself. Similarity gates membership; presentation order
// is randomized, trading strict relevance for diversity. The result is
// deliberately never re-sorted by score.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - seedID: recipe the recommendations are anchored on.
// Returns:
//   - []domain.Recipe: randomized recommendation set.
//   - error: not-found if the seed is missing or not approved.
func (s *RetrievalService) Recommended(ctx context.Context, seedID uint) ([]domain.Recipe, error) {
	seed, err := s.recipes.GetByID(ctx, seedID)
	if err != nil {
		return nil, storeErr(err, "recipe not found")
	}
	if !VisibleInListings(seed) {
		return nil, domain.E(domain.KindNotFound, "recipe not found")
	}

	ids, err := s.index.Neighbors(ctx, seed.Embedding, s.cfg.RecommendMinSimilarity, seedID, s.cfg.CandidateLimit)
	if err != nil {
		return nil, storeErr(err, "failed to filter recipes by similarity")
	}

	recipes, err := s.recipes.SampleByIDs(ctx, ids, recommendedLimit)
	return recipes, storeErr(err, "failed to sample recipes")
}

// RandomFeed returns approved recipes in uniform random order, no similarity
// involved.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum results, 1..100, default 25.
// Returns:
//   - []domain.Recipe: random sample of approved recipes.
//   - error: non-nil if the query fails.
func (s *RetrievalService) RandomFeed(ctx context.Context, limit int) ([]domain.Recipe, error) {
	if limit <= 0 {
		limit = defaultRandomLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	recipes, err := s.recipes.SampleApproved(ctx, limit)
	return recipes, storeErr(err, "failed to sample recipes")
}

// GetByID fetches one recipe under the fetch-by-id visibility rule and
// records a view event for the viewer. A draft is only visible to its author
// or an admin; everyone else gets not-found, indistinguishable from a
// missing row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe id.
//   - viewer: resolved caller identity.
// Returns:
//   - *domain.Recipe: the recipe if visible.
//   - error: not-found if missing or not visible to the viewer.
func (s *RetrievalService) GetByID(ctx context.Context, id uint, viewer domain.Viewer) (*domain.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "recipe not found")
	}

	if !VisibleTo(recipe, viewer) {
		return nil, domain.E(domain.KindNotFound, "recipe not found")
	}

	if !viewer.Anonymous() {
		if err := s.views.Append(ctx, &domain.ViewEvent{
			ViewerID: viewer.ID,
			RecipeID: recipe.ID,
		}); err != nil {
			// History is a side channel; losing one event does not fail the fetch.
			logger.CtxWarn(ctx, "Failed to record view event: recipe_id=%d, viewer_id=%s, error=%v",
				recipe.ID, viewer.ID, err)
		}
	}

	return recipe, nil
}

// History returns the recipes a viewer has fetched, most recent first,
// 25 per page.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - viewer: resolved caller identity.
//   - page: zero-based page index.
// Returns:
//   - []domain.Recipe: one page of the viewer's history.
//   - error: unauthorized if the viewer is anonymous.
func (s *RetrievalService) History(ctx context.Context, viewer domain.Viewer, page int) ([]domain.Recipe, error) {
	if viewer.Anonymous() {
		return nil, domain.E(domain.KindUnauthorized, "authentication required")
	}
	if page < 0 {
		return nil, domain.E(domain.KindValidation, "page must be non-negative")
	}

	recipes, err := s.views.History(ctx, viewer.ID, s.cfg.PageSize, s.cfg.PageSize*page)
	return recipes, storeErr(err, "failed to list history")
}

// ListPending lists draft recipes awaiting approval. Admin only; this is the
// single surface where drafts are enumerable.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - viewer: resolved caller identity.
// Returns:
//   - []domain.Recipe: drafts, oldest first.
//   - error: forbidden for non-admin viewers.
func (s *RetrievalService) ListPending(ctx context.Context, viewer domain.Viewer) ([]domain.Recipe, error) {
	if !viewer.Admin {
		return nil, domain.E(domain.KindForbidden, "admin privileges required")
	}

	recipes, err := s.recipes.ListByState(ctx, domain.StateDraft)
	return recipes, storeErr(err, "failed to list pending recipes")
}

// hydrateRanked loads rows for ranked ids and reassembles them in rank
// order. Rows that have drifted out of the approved state since the index
// was queried are dropped rather than surfaced.
func (s *RetrievalService) hydrateRanked(ctx context.Context, ranked []repository.RankedID) ([]domain.RecipeSearchResult, error) {
	if len(ranked) == 0 {
		return []domain.RecipeSearchResult{}, nil
	}

	ids := make([]uint, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}

	recipes, err := s.recipes.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "failed to load ranked recipes")
	}

	byID := make(map[uint]*domain.Recipe, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}

	results := make([]domain.RecipeSearchResult, 0, len(ranked))
	for _, r := range ranked {
		recipe, ok := byID[r.ID]
		if !ok || !VisibleInListings(recipe) {
			continue
		}
		results = append(results, domain.RecipeSearchResult{
			Recipe: *recipe,
			Score:  r.Score,
		})
	}

	return results, nil
}
