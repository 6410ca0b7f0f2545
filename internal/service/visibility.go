package service

import "github.com/feastly/feastly/internal/domain"

// Visibility is asymmetric on purpose: listings are strictly approved-only
// for every viewer, while fetch-by-id lets the author or an admin preview a
// draft by its identifier without it ever surfacing in discovery.

// VisibleInListings reports whether a recipe may appear in search,
// autocomplete, recommendation, or random feed results. There is no author
// or admin exception here.
func VisibleInListings(recipe *domain.Recipe) bool {
	return recipe.State == domain.StateApproved
}

// VisibleTo reports whether a viewer may fetch a recipe directly by id.
func VisibleTo(recipe *domain.Recipe, viewer domain.Viewer) bool {
	if recipe.State == domain.StateApproved {
		return true
	}
	return viewer.Admin || (viewer.ID != "" && viewer.ID == recipe.AuthorID)
}
