package service

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/feastly/feastly/internal/domain"
	"github.com/feastly/feastly/internal/repository"
	"gorm.io/gorm"
)

// fakeRecipeStore is an in-memory RecipeStore for service tests.
type fakeRecipeStore struct {
	recipes map[uint]domain.Recipe
	nextID  uint

	createErr error
	updateErr error
}

func newFakeRecipeStore(seed ...domain.Recipe) *fakeRecipeStore {
	s := &fakeRecipeStore{recipes: make(map[uint]domain.Recipe), nextID: 1}
	for _, r := range seed {
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
		s.recipes[r.ID] = r
	}
	return s
}

func (s *fakeRecipeStore) Create(_ context.Context, recipe *domain.Recipe) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.recipes {
		if existing.Title == recipe.Title {
			return gorm.ErrDuplicatedKey
		}
	}
	recipe.ID = s.nextID
	s.nextID++
	s.recipes[recipe.ID] = *recipe
	return nil
}

func (s *fakeRecipeStore) GetByID(_ context.Context, id uint) (*domain.Recipe, error) {
	r, ok := s.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (s *fakeRecipeStore) GetByIDs(_ context.Context, ids []uint) ([]domain.Recipe, error) {
	var out []domain.Recipe
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeRecipeStore) Update(_ context.Context, recipe *domain.Recipe) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.recipes[recipe.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.recipes[recipe.ID] = *recipe
	return nil
}

func (s *fakeRecipeStore) SetState(_ context.Context, id uint, state domain.ModerationState, newAuthorID *string) (int64, error) {
	r, ok := s.recipes[id]
	if !ok {
		return 0, nil
	}
	r.State = state
	if newAuthorID != nil {
		r.AuthorID = *newAuthorID
	}
	s.recipes[id] = r
	return 1, nil
}

func (s *fakeRecipeStore) DeleteOwned(_ context.Context, id uint, authorID string) (int64, error) {
	r, ok := s.recipes[id]
	if !ok || r.AuthorID != authorID {
		return 0, nil
	}
	delete(s.recipes, id)
	return 1, nil
}

func (s *fakeRecipeStore) SampleApproved(_ context.Context, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	for _, id := range s.sortedIDs() {
		r := s.recipes[id]
		if r.State != domain.StateApproved {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeRecipeStore) SampleByIDs(_ context.Context, ids []uint, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			out = append(out, r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeRecipeStore) ListByState(_ context.Context, state domain.ModerationState) ([]domain.Recipe, error) {
	var out []domain.Recipe
	for _, id := range s.sortedIDs() {
		if r := s.recipes[id]; r.State == state {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeRecipeStore) sortedIDs() []uint {
	ids := make([]uint, 0, len(s.recipes))
	for id := range s.recipes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// fakeVectorIndex is an in-memory VectorIndex. Rank and Neighbors replay
// preset results so tests control the ranking directly.
type fakeVectorIndex struct {
	ranked    []repository.RankedID
	neighbors []uint

	rankErr      error
	neighborsErr error
	upsertErr    error

	upserts   []uint
	setStates map[uint]domain.ModerationState
	deletes   []uint
	lastState domain.ModerationState
	lastOwner string
}

func newFakeVectorIndex() *fakeVectorIndex {
	return &fakeVectorIndex{setStates: make(map[uint]domain.ModerationState)}
}

func (f *fakeVectorIndex) Upsert(_ context.Context, id uint, _ []float32, state domain.ModerationState, authorID string) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, id)
	f.lastState = state
	f.lastOwner = authorID
	return nil
}

func (f *fakeVectorIndex) SetState(_ context.Context, id uint, state domain.ModerationState) error {
	f.setStates[id] = state
	return nil
}

func (f *fakeVectorIndex) Delete(_ context.Context, id uint) error {
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeVectorIndex) Rank(_ context.Context, _ []float32, limit, offset int) ([]repository.RankedID, error) {
	if f.rankErr != nil {
		return nil, f.rankErr
	}
	if offset >= len(f.ranked) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.ranked) {
		end = len(f.ranked)
	}
	return f.ranked[offset:end], nil
}

func (f *fakeVectorIndex) Neighbors(_ context.Context, _ []float32, _ float32, excludeID uint, limit int) ([]uint, error) {
	if f.neighborsErr != nil {
		return nil, f.neighborsErr
	}
	var out []uint
	for _, id := range f.neighbors {
		if id == excludeID {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeViewStore records appended events and replays a preset history.
type fakeViewStore struct {
	events    []domain.ViewEvent
	history   []domain.Recipe
	appendErr error
}

func (f *fakeViewStore) Append(_ context.Context, event *domain.ViewEvent) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeViewStore) History(_ context.Context, _ string, limit, offset int) ([]domain.Recipe, error) {
	if offset >= len(f.history) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.history) {
		end = len(f.history)
	}
	return f.history[offset:end], nil
}

// fakeEmbedder returns a constant vector and counts calls.
type fakeEmbedder struct {
	vector   []float32
	err      error
	calls    int
	lastText string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vector: make([]float32, domain.EmbeddingDim)}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeStorage captures uploads and serves deterministic URLs.
type fakeStorage struct {
	uploads map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeStorage) GetURL(key string) string {
	return fmt.Sprintf("https://cdn.example.com/%s", key)
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	delete(f.uploads, key)
	return nil
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return nil
}
