package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/feastly/feastly/internal/domain"
	"github.com/feastly/feastly/internal/repository"
)

func testVector() []float32 {
	return make([]float32, domain.EmbeddingDim)
}

func approvedRecipe(id uint, title string) domain.Recipe {
	return domain.Recipe{
		ID:        id,
		AuthorID:  "author-1",
		State:     domain.StateApproved,
		Title:     title,
		Embedding: testVector(),
	}
}

func draftRecipe(id uint, title string) domain.Recipe {
	r := approvedRecipe(id, title)
	r.State = domain.StateDraft
	return r
}

func newTestRetrieval(store *fakeRecipeStore, index *fakeVectorIndex, views *fakeViewStore, embedder *fakeEmbedder) *RetrievalService {
	return NewRetrievalService(store, index, views, embedder, RetrievalConfig{
		PageSize:               25,
		VectorMinSimilarity:    0.60,
		RecommendMinSimilarity: 0.65,
		CandidateLimit:         200,
	})
}

func TestSearch_RankOrderPreserved(t *testing.T) {
	store := newFakeRecipeStore(
		approvedRecipe(1, "Pad Thai"),
		approvedRecipe(2, "Green Curry"),
		approvedRecipe(3, "Tom Yum"),
	)
	index := newFakeVectorIndex()
	index.ranked = []repository.RankedID{
		{ID: 3, Score: 0.91},
		{ID: 1, Score: 0.82},
		{ID: 2, Score: 0.71},
	}

	svc := newTestRetrieval(store, index, &fakeViewStore{}, newFakeEmbedder())

	results, err := svc.Search(context.Background(), "thai noodles", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantOrder := []uint{3, 1, 2}
	for i, want := range wantOrder {
		if results[i].ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, results[i].ID)
		}
	}

	if results[0].Score != 0.91 {
		t.Errorf("expected top score 0.91, got %f", results[0].Score)
	}
}

func TestSearch_DropsRowsNoLongerApproved(t *testing.T) {
	store := newFakeRecipeStore(
		approvedRecipe(1, "Pad Thai"),
		draftRecipe(2, "Green Curry"),
	)
	index := newFakeVectorIndex()
	// The index still lists id 2; the row has since gone back to draft.
	index.ranked = []repository.RankedID{
		{ID: 2, Score: 0.95},
		{ID: 1, Score: 0.80},
	}

	svc := newTestRetrieval(store, index, &fakeViewStore{}, newFakeEmbedder())

	results, err := svc.Search(context.Background(), "curry", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != 1 {
		t.Errorf("expected id 1, got %d", results[0].ID)
	}
}

func TestSearch_PagePastEndIsEmpty(t *testing.T) {
	store := newFakeRecipeStore(approvedRecipe(1, "Pad Thai"))
	index := newFakeVectorIndex()
	index.ranked = []repository.RankedID{{ID: 1, Score: 0.9}}

	svc := newTestRetrieval(store, index, &fakeViewStore{}, newFakeEmbedder())

	results, err := svc.Search(context.Background(), "noodles", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty page, got %d results", len(results))
	}
}

func TestSearch_NegativePageRejected(t *testing.T) {
	svc := newTestRetrieval(newFakeRecipeStore(), newFakeVectorIndex(), &fakeViewStore{}, newFakeEmbedder())

	_, err := svc.Search(context.Background(), "noodles", -1)
	if !domain.IsKind(err, domain.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSearch_EmbedderFailureAborts(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.err = domain.E(domain.KindEmbeddingUnavailable, "oracle down")

	index := newFakeVectorIndex()
	svc := newTestRetrieval(newFakeRecipeStore(), index, &fakeViewStore{}, embedder)

	_, err := svc.Search(context.Background(), "noodles", 0)
	if !domain.IsKind(err, domain.KindEmbeddingUnavailable) {
		t.Errorf("expected embedding-unavailable error, got %v", err)
	}
}

func TestAutocomplete_ReturnsTitlesInRankOrder(t *testing.T) {
	store := newFakeRecipeStore(
		approvedRecipe(1, "Pad Thai"),
		approvedRecipe(2, "Pad See Ew"),
	)
	index := newFakeVectorIndex()
	index.ranked = []repository.RankedID{
		{ID: 2, Score: 0.9},
		{ID: 1, Score: 0.8},
	}

	svc := newTestRetrieval(store, index, &fakeViewStore{}, newFakeEmbedder())

	titles, err := svc.Autocomplete(context.Background(), "pad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Pad See Ew", "Pad Thai"}
	if len(titles) != len(want) {
		t.Fatalf("expected %d titles, got %d", len(want), len(titles))
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], titles[i])
		}
	}
}

func TestAutocomplete_CappedAtTen(t *testing.T) {
	store := newFakeRecipeStore()
	index := newFakeVectorIndex()
	for i := uint(1); i <= 15; i++ {
		r := approvedRecipe(i, fmt.Sprintf("Recipe %d", i))
		store.recipes[i] = r
		index.ranked = append(index.ranked, repository.RankedID{ID: i, Score: 1 - float32(i)/100})
	}

	svc := newTestRetrieval(store, index, &fakeViewStore{}, newFakeEmbedder())

	titles, err := svc.Autocomplete(context.Background(), "recipe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(titles) != 10 {
		t.Errorf("expected 10 titles, got %d", len(titles))
	}
}

func TestVectorSearch_NilVectorFallsBackToSample(t *testing.T) {
	store := newFakeRecipeStore(
		approvedRecipe(1, "Pad Thai"),
		draftRecipe(2, "Green Curry"),
		approvedRecipe(3, "Tom Yum"),
	)
	embedder := newFakeEmbedder()
	svc := newTestRetrieval(store, newFakeVectorIndex(), &fakeViewStore{}, embedder)

	recipes, err := svc.VectorSearch(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recipes) != 2 {
		t.Fatalf("expected 2 approved recipes, got %d", len(recipes))
	}
	for _, r := range recipes {
		if r.State != domain.StateApproved {
			t.Errorf("recipe %d is not approved", r.ID)
		}
	}
	if embedder.calls != 0 {
		t.Errorf("fallback sampling should not call the oracle, got %d calls", embedder.calls)
	}
}

func TestVectorSearch_WrongDimensionsRejected(t *testing.T) {
	svc := newTestRetrieval(newFakeRecipeStore(), newFakeVectorIndex(), &fakeViewStore{}, newFakeEmbedder())

	_, err := svc.VectorSearch(context.Background(), []float32{0.1, 0.2}, 10)
	if !domain.IsKind(err, domain.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestVectorSearch_ThresholdGated(t *testing.T) {
	store := newFakeRecipeStore(
		approvedRecipe(1, "Pad Thai"),
		approvedRecipe(2, "Green Curry"),
		approvedRecipe(3, "Tom Yum"),
	)
	index := newFakeVectorIndex()
	index.neighbors = []uint{1, 3}

	svc := newTestRetrieval(store, index, &fakeViewStore{}, newFakeEmbedder())

	recipes, err := svc.VectorSearch(context.Background(), testVector(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}
	got := map[uint]bool{}
	for _, r := range recipes {
		got[r.ID] = true
	}
	if !got[1] || !got[3] {
		t.Errorf("expected ids 1 and 3, got %v", got)
	}
}

func TestRecommended_SeedMustBeApproved(t *testing.T) {
	tests := []struct {
		name   string
		seed   []domain.Recipe
		seedID uint
	}{
		{
			name:   "missing seed",
			seed:   nil,
			seedID: 42,
		},
		{
			name:   "draft seed",
			seed:   []domain.Recipe{draftRecipe(1, "Pad Thai")},
			seedID: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeRecipeStore(tt.seed...)
			svc := newTestRetrieval(store, newFakeVectorIndex(), &fakeViewStore{}, newFakeEmbedder())

			_, err := svc.Recommended(context.Background(), tt.seedID)
			if !domain.IsKind(err, domain.KindNotFound) {
				t.Errorf("expected not-found error, got %v", err)
			}
		})
	}
}

func TestRecommended_ExcludesSeed(t *testing.T) {
	store := newFakeRecipeStore(
		approvedRecipe(1, "Pad Thai"),
		approvedRecipe(2, "Pad See Ew"),
		approvedRecipe(3, "Drunken Noodles"),
	)
	index := newFakeVectorIndex()
	index.neighbors = []uint{1, 2, 3}

	svc := newTestRetrieval(store, index, &fakeViewStore{}, newFakeEmbedder())

	recipes, err := svc.Recommended(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range recipes {
		if r.ID == 1 {
			t.Error("recommendations must not contain the seed")
		}
	}
	if len(recipes) != 2 {
		t.Errorf("expected 2 recommendations, got %d", len(recipes))
	}
}

func TestRecommended_CappedAtTwentyFive(t *testing.T) {
	store := newFakeRecipeStore(approvedRecipe(1, "Seed"))
	index := newFakeVectorIndex()
	for i := uint(2); i <= 60; i++ {
		store.recipes[i] = approvedRecipe(i, fmt.Sprintf("Recipe %d", i))
		index.neighbors = append(index.neighbors, i)
	}

	svc := newTestRetrieval(store, index, &fakeViewStore{}, newFakeEmbedder())

	recipes, err := svc.Recommended(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 25 {
		t.Errorf("expected 25 recommendations, got %d", len(recipes))
	}
}

func TestRandomFeed_Limits(t *testing.T) {
	store := newFakeRecipeStore()
	for i := uint(1); i <= 150; i++ {
		store.recipes[i] = approvedRecipe(i, fmt.Sprintf("Recipe %d", i))
	}
	svc := newTestRetrieval(store, newFakeVectorIndex(), &fakeViewStore{}, newFakeEmbedder())

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, 25},
		{"explicit", 40, 40},
		{"clamped to max", 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipes, err := svc.RandomFeed(context.Background(), tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(recipes) != tt.want {
				t.Errorf("expected %d recipes, got %d", tt.want, len(recipes))
			}
		})
	}
}

func TestGetByID_Visibility(t *testing.T) {
	tests := []struct {
		name      string
		recipe    domain.Recipe
		viewer    domain.Viewer
		wantFound bool
	}{
		{
			name:      "approved visible to anonymous",
			recipe:    approvedRecipe(1, "Pad Thai"),
			viewer:    domain.Viewer{},
			wantFound: true,
		},
		{
			name:      "draft hidden from anonymous",
			recipe:    draftRecipe(1, "Pad Thai"),
			viewer:    domain.Viewer{},
			wantFound: false,
		},
		{
			name:      "draft hidden from stranger",
			recipe:    draftRecipe(1, "Pad Thai"),
			viewer:    domain.Viewer{ID: "stranger"},
			wantFound: false,
		},
		{
			name:      "draft visible to author",
			recipe:    draftRecipe(1, "Pad Thai"),
			viewer:    domain.Viewer{ID: "author-1"},
			wantFound: true,
		},
		{
			name:      "draft visible to admin",
			recipe:    draftRecipe(1, "Pad Thai"),
			viewer:    domain.Viewer{ID: "mod", Admin: true},
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeRecipeStore(tt.recipe)
			svc := newTestRetrieval(store, newFakeVectorIndex(), &fakeViewStore{}, newFakeEmbedder())

			recipe, err := svc.GetByID(context.Background(), 1, tt.viewer)
			if tt.wantFound {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if recipe.ID != 1 {
					t.Errorf("expected recipe 1, got %d", recipe.ID)
				}
				return
			}
			if !domain.IsKind(err, domain.KindNotFound) {
				t.Errorf("expected not-found error, got %v", err)
			}
		})
	}
}

func TestGetByID_RecordsViewForAuthenticated(t *testing.T) {
	store := newFakeRecipeStore(approvedRecipe(1, "Pad Thai"))
	views := &fakeViewStore{}
	svc := newTestRetrieval(store, newFakeVectorIndex(), views, newFakeEmbedder())

	if _, err := svc.GetByID(context.Background(), 1, domain.Viewer{ID: "viewer-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(views.events) != 1 {
		t.Fatalf("expected 1 view event, got %d", len(views.events))
	}
	if views.events[0].ViewerID != "viewer-1" || views.events[0].RecipeID != 1 {
		t.Errorf("unexpected event: %+v", views.events[0])
	}
}

func TestGetByID_NoViewForAnonymous(t *testing.T) {
	store := newFakeRecipeStore(approvedRecipe(1, "Pad Thai"))
	views := &fakeViewStore{}
	svc := newTestRetrieval(store, newFakeVectorIndex(), views, newFakeEmbedder())

	if _, err := svc.GetByID(context.Background(), 1, domain.Viewer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views.events) != 0 {
		t.Errorf("expected no view events, got %d", len(views.events))
	}
}

func TestGetByID_ViewAppendFailureIsNonFatal(t *testing.T) {
	store := newFakeRecipeStore(approvedRecipe(1, "Pad Thai"))
	views := &fakeViewStore{appendErr: errors.New("disk full")}
	svc := newTestRetrieval(store, newFakeVectorIndex(), views, newFakeEmbedder())

	recipe, err := svc.GetByID(context.Background(), 1, domain.Viewer{ID: "viewer-1"})
	if err != nil {
		t.Fatalf("fetch must not fail on a lost view event: %v", err)
	}
	if recipe.ID != 1 {
		t.Errorf("expected recipe 1, got %d", recipe.ID)
	}
}

func TestHistory_RequiresIdentity(t *testing.T) {
	svc := newTestRetrieval(newFakeRecipeStore(), newFakeVectorIndex(), &fakeViewStore{}, newFakeEmbedder())

	_, err := svc.History(context.Background(), domain.Viewer{}, 0)
	if !domain.IsKind(err, domain.KindUnauthorized) {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestHistory_Pagination(t *testing.T) {
	views := &fakeViewStore{}
	for i := uint(1); i <= 30; i++ {
		views.history = append(views.history, approvedRecipe(i, fmt.Sprintf("Recipe %d", i)))
	}
	svc := newTestRetrieval(newFakeRecipeStore(), newFakeVectorIndex(), views, newFakeEmbedder())

	viewer := domain.Viewer{ID: "viewer-1"}

	first, err := svc.History(context.Background(), viewer, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 25 {
		t.Errorf("expected 25 on first page, got %d", len(first))
	}

	second, err := svc.History(context.Background(), viewer, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 5 {
		t.Errorf("expected 5 on second page, got %d", len(second))
	}

	third, err := svc.History(context.Background(), viewer, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(third) != 0 {
		t.Errorf("expected empty third page, got %d", len(third))
	}
}

func TestListPending_AdminOnly(t *testing.T) {
	store := newFakeRecipeStore(
		draftRecipe(1, "Pad Thai"),
		approvedRecipe(2, "Green Curry"),
		draftRecipe(3, "Tom Yum"),
	)
	svc := newTestRetrieval(store, newFakeVectorIndex(), &fakeViewStore{}, newFakeEmbedder())

	if _, err := svc.ListPending(context.Background(), domain.Viewer{ID: "user"}); !domain.IsKind(err, domain.KindForbidden) {
		t.Errorf("expected forbidden error, got %v", err)
	}

	recipes, err := svc.ListPending(context.Background(), domain.Viewer{ID: "mod", Admin: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(recipes))
	}
	for _, r := range recipes {
		if r.State != domain.StateDraft {
			t.Errorf("recipe %d is not a draft", r.ID)
		}
	}
}
