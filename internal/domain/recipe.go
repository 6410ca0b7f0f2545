package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// EmbeddingDim is the dimensionality of every stored embedding. The oracle
// always returns vectors of this length and the ANN collection is created
// with it; anything else is rejected before it can be persisted.
const EmbeddingDim = 768

// ModerationState represents the moderation state of a recipe.
// A recipe is created as draft and only becomes discoverable once approved.
type ModerationState string

const (
	StateDraft    ModerationState = "draft"
	StateApproved ModerationState = "approved"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Vector is a dense embedding stored as a JSON array in the database.
// A nil Vector means the embedding has not been computed yet; this is only
// ever a transient state before the first oracle call completes.
type Vector []float32

// Value implements the driver.Valuer interface for database serialization.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan Vector")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, v)
}

// Recipe represents a catalog recipe.
// Fields include ownership, the stored embedding, content fields used as
// embedding input, nutrition values, and the moderation state.
type Recipe struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AuthorID     string          `gorm:"type:text;not null;index:idx_recipes_author" json:"author_id"`
	Embedding    Vector          `gorm:"type:text" json:"embedding,omitempty"`
	State        ModerationState `gorm:"type:text;index:idx_recipes_state;default:draft" json:"state"`
	Title        string          `gorm:"type:text;not null;uniqueIndex:idx_recipes_title" json:"title"`
	Thumbnail    string          `gorm:"type:text" json:"thumbnail"`
	URL          *string         `gorm:"type:text" json:"url"`
	Ingredients  StringArray     `gorm:"type:text" json:"ingredients"`
	Directions   StringArray     `gorm:"type:text" json:"directions"`
	Tags         StringArray     `gorm:"type:text" json:"tags"`
	Notes        *string         `gorm:"type:text" json:"notes"`
	Description  *string         `gorm:"type:text" json:"description"`
	Calories     float32         `json:"calories"`
	Fat          float32         `json:"fat"`
	SaturatedFat float32         `json:"saturated_fat"`
	Protein      float32         `json:"protein"`
	Sodium       float32         `json:"sodium"`
	Sugar        float32         `json:"sugar"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string {
	return "recipes"
}

// EmbeddingText returns the canonical text projection fed to the embedding
// oracle: title, tags, ingredients, and description joined with " | ".
// Create and edit both embed this projection, computed from the values being
// persisted.
func (r *Recipe) EmbeddingText() string {
	description := ""
	if r.Description != nil {
		description = *r.Description
	}
	return strings.Join([]string{
		r.Title,
		strings.Join(r.Tags, " "),
		strings.Join(r.Ingredients, " "),
		description,
	}, " | ")
}

// RecipeSearchResult represents a ranked result with a similarity score.
type RecipeSearchResult struct {
	Recipe
	Score float32 `json:"score"`
}
