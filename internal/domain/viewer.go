package domain

import "time"

// Viewer identifies the principal a request is executed for. Authentication
// itself happens upstream; this service only consumes the resolved identity.
type Viewer struct {
	ID    string
	Admin bool
}

// Anonymous reports whether the viewer carries no identity.
func (v Viewer) Anonymous() bool {
	return v.ID == ""
}

// ViewEvent records one fetch-by-id of a recipe by an authenticated viewer.
// Rows are append-only; repeat views accumulate.
type ViewEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ViewerID  string    `gorm:"type:text;not null;index:idx_view_events_viewer" json:"viewer_id"`
	RecipeID  uint      `gorm:"not null;index:idx_view_events_recipe" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ViewEvent.
func (ViewEvent) TableName() string {
	return "view_events"
}
