package domain

import (
	"bytes"
	"encoding/json"
)

// Field is a three-state patch field: unset, explicit null, or a value.
// JSON decoding leaves an absent field unset, records an explicit null as
// set-but-invalid, and records anything else as a value. Applying a patch
// skips unset fields, clears nullable columns on null, and overwrites on
// value, so "not provided" and "explicitly cleared" stay distinguishable.
type Field[T any] struct {
	Set   bool
	Valid bool
	value T
}

// NewField returns a set field carrying a value.
func NewField[T any](v T) Field[T] {
	return Field[T]{Set: true, Valid: true, value: v}
}

// NullField returns a set field carrying an explicit null.
func NullField[T any]() Field[T] {
	return Field[T]{Set: true}
}

// Value returns the carried value and whether one is present.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.Set && f.Valid
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked for fields
// present in the payload, which is what makes the unset state observable.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(data, []byte("null")) {
		f.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &f.value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// RecipePatch is a partial update of a recipe's mutable fields. Nullable
// columns (url, notes, description) accept an explicit null to clear the
// stored value; the rest only accept values.
type RecipePatch struct {
	Title        Field[string]   `json:"title"`
	Thumbnail    Field[string]   `json:"thumbnail"`
	URL          Field[string]   `json:"url"`
	Ingredients  Field[[]string] `json:"ingredients"`
	Directions   Field[[]string] `json:"directions"`
	Tags         Field[[]string] `json:"tags"`
	Notes        Field[string]   `json:"notes"`
	Description  Field[string]   `json:"description"`
	Calories     Field[float32]  `json:"calories"`
	Fat          Field[float32]  `json:"fat"`
	SaturatedFat Field[float32]  `json:"saturated_fat"`
	Protein      Field[float32]  `json:"protein"`
	Sodium       Field[float32]  `json:"sodium"`
	Sugar        Field[float32]  `json:"sugar"`
}

// Apply copies the patch onto a recipe field-by-field. Unset fields leave the
// recipe unchanged; null fields clear nullable columns.
func (p *RecipePatch) Apply(r *Recipe) {
	if v, ok := p.Title.Value(); ok {
		r.Title = v
	}
	if v, ok := p.Thumbnail.Value(); ok {
		r.Thumbnail = v
	}
	applyNullable(p.URL, &r.URL)
	if v, ok := p.Ingredients.Value(); ok {
		r.Ingredients = v
	}
	if v, ok := p.Directions.Value(); ok {
		r.Directions = v
	}
	if v, ok := p.Tags.Value(); ok {
		r.Tags = v
	}
	applyNullable(p.Notes, &r.Notes)
	applyNullable(p.Description, &r.Description)
	if v, ok := p.Calories.Value(); ok {
		r.Calories = v
	}
	if v, ok := p.Fat.Value(); ok {
		r.Fat = v
	}
	if v, ok := p.SaturatedFat.Value(); ok {
		r.SaturatedFat = v
	}
	if v, ok := p.Protein.Value(); ok {
		r.Protein = v
	}
	if v, ok := p.Sodium.Value(); ok {
		r.Sodium = v
	}
	if v, ok := p.Sugar.Value(); ok {
		r.Sugar = v
	}
}

// Validate checks range constraints on provided fields.
func (p *RecipePatch) Validate() error {
	if v, ok := p.Title.Value(); ok && v == "" {
		return E(KindValidation, "title must not be empty")
	}
	nutrition := map[string]Field[float32]{
		"calories":      p.Calories,
		"fat":           p.Fat,
		"saturated_fat": p.SaturatedFat,
		"protein":       p.Protein,
		"sodium":        p.Sodium,
		"sugar":         p.Sugar,
	}
	for name, f := range nutrition {
		if v, ok := f.Value(); ok && v < 0 {
			return Ef(KindValidation, "%s must be non-negative", name)
		}
	}
	return nil
}

func applyNullable(f Field[string], dst **string) {
	if !f.Set {
		return
	}
	if !f.Valid {
		*dst = nil
		return
	}
	v := f.value
	*dst = &v
}
