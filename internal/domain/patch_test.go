package domain

import (
	"encoding/json"
	"testing"
)

func TestField_ThreeStates(t *testing.T) {
	type payload struct {
		Title Field[string] `json:"title"`
		Notes Field[string] `json:"notes"`
	}

	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantValid bool
		wantVal   string
	}{
		{
			name:    "absent field stays unset",
			body:    `{"title":"Pad Thai"}`,
			wantSet: false,
		},
		{
			name:      "explicit null is set but invalid",
			body:      `{"notes":null}`,
			wantSet:   true,
			wantValid: false,
		},
		{
			name:      "value is set and valid",
			body:      `{"notes":"family favorite"}`,
			wantSet:   true,
			wantValid: true,
			wantVal:   "family favorite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}

			if p.Notes.Set != tt.wantSet {
				t.Errorf("Set = %v, want %v", p.Notes.Set, tt.wantSet)
			}
			if p.Notes.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", p.Notes.Valid, tt.wantValid)
			}
			if v, ok := p.Notes.Value(); ok != (tt.wantSet && tt.wantValid) || v != tt.wantVal {
				t.Errorf("Value() = (%q, %v), want (%q, %v)", v, ok, tt.wantVal, tt.wantSet && tt.wantValid)
			}
		})
	}
}

func TestField_RejectsWrongType(t *testing.T) {
	var f Field[float32]
	if err := json.Unmarshal([]byte(`"not a number"`), &f); err == nil {
		t.Error("expected unmarshal error for wrong type")
	}
}

func sampleRecipe() *Recipe {
	url := "https://example.com/padthai"
	notes := "family favorite"
	return &Recipe{
		ID:          1,
		AuthorID:    "author-1",
		State:       StateApproved,
		Title:       "Pad Thai",
		URL:         &url,
		Ingredients: StringArray{"rice noodles", "tamarind"},
		Tags:        StringArray{"thai"},
		Notes:       &notes,
		Calories:    450,
	}
}

func TestRecipePatch_ApplyUnsetLeavesUnchanged(t *testing.T) {
	r := sampleRecipe()
	(&RecipePatch{}).Apply(r)

	if r.Title != "Pad Thai" {
		t.Errorf("title changed unexpectedly: %q", r.Title)
	}
	if r.URL == nil || *r.URL != "https://example.com/padthai" {
		t.Error("url changed unexpectedly")
	}
	if r.Notes == nil || *r.Notes != "family favorite" {
		t.Error("notes changed unexpectedly")
	}
	if r.Calories != 450 {
		t.Errorf("calories changed unexpectedly: %f", r.Calories)
	}
}

func TestRecipePatch_ApplyValuesOverwrite(t *testing.T) {
	r := sampleRecipe()
	patch := &RecipePatch{
		Title:       NewField("Better Pad Thai"),
		Ingredients: NewField([]string{"flat noodles"}),
		Calories:    NewField(float32(500)),
	}
	patch.Apply(r)

	if r.Title != "Better Pad Thai" {
		t.Errorf("expected new title, got %q", r.Title)
	}
	if len(r.Ingredients) != 1 || r.Ingredients[0] != "flat noodles" {
		t.Errorf("expected new ingredients, got %v", r.Ingredients)
	}
	if r.Calories != 500 {
		t.Errorf("expected 500 calories, got %f", r.Calories)
	}
}

func TestRecipePatch_NullClearsNullableFields(t *testing.T) {
	r := sampleRecipe()
	patch := &RecipePatch{
		URL:   NullField[string](),
		Notes: NullField[string](),
	}
	patch.Apply(r)

	if r.URL != nil {
		t.Errorf("expected url cleared, got %q", *r.URL)
	}
	if r.Notes != nil {
		t.Errorf("expected notes cleared, got %q", *r.Notes)
	}
}

func TestRecipePatch_FromJSON(t *testing.T) {
	body := `{"title":"Better Pad Thai","url":null,"calories":500}`

	var patch RecipePatch
	if err := json.Unmarshal([]byte(body), &patch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	r := sampleRecipe()
	patch.Apply(r)

	if r.Title != "Better Pad Thai" {
		t.Errorf("expected new title, got %q", r.Title)
	}
	if r.URL != nil {
		t.Error("expected url cleared by explicit null")
	}
	if r.Notes == nil {
		t.Error("absent notes field must leave notes unchanged")
	}
	if r.Calories != 500 {
		t.Errorf("expected 500 calories, got %f", r.Calories)
	}
}

func TestRecipePatch_Validate(t *testing.T) {
	tests := []struct {
		name    string
		patch   RecipePatch
		wantErr bool
	}{
		{"empty patch", RecipePatch{}, false},
		{"valid title", RecipePatch{Title: NewField("Pad Thai")}, false},
		{"empty title", RecipePatch{Title: NewField("")}, true},
		{"negative calories", RecipePatch{Calories: NewField(float32(-1))}, true},
		{"zero nutrition", RecipePatch{Sugar: NewField(float32(0))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr && !IsKind(err, KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
