package domain

import "testing"

func TestEmbeddingText(t *testing.T) {
	description := "stir-fried rice noodles"

	tests := []struct {
		name   string
		recipe Recipe
		want   string
	}{
		{
			name: "all fields",
			recipe: Recipe{
				Title:       "Pad Thai",
				Tags:        StringArray{"thai", "noodles"},
				Ingredients: StringArray{"rice noodles", "tamarind"},
				Description: &description,
			},
			want: "Pad Thai | thai noodles | rice noodles tamarind | stir-fried rice noodles",
		},
		{
			name:   "title only keeps separators",
			recipe: Recipe{Title: "Pad Thai"},
			want:   "Pad Thai |  |  | ",
		},
		{
			name: "nil description reads as empty",
			recipe: Recipe{
				Title: "Pad Thai",
				Tags:  StringArray{"thai"},
			},
			want: "Pad Thai | thai |  | ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.recipe.EmbeddingText(); got != tt.want {
				t.Errorf("EmbeddingText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStringArray_RoundTrip(t *testing.T) {
	a := StringArray{"rice noodles", "tamarind"}

	v, err := a.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var decoded StringArray
	if err := decoded.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(decoded) != 2 || decoded[0] != "rice noodles" || decoded[1] != "tamarind" {
		t.Errorf("round trip mismatch: %v", decoded)
	}
}

func TestStringArray_NilValue(t *testing.T) {
	var a StringArray
	v, err := a.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "[]" {
		t.Errorf("expected empty array literal, got %v", v)
	}
}

func TestVector_ScanNil(t *testing.T) {
	v := Vector{1, 2, 3}
	if err := v.Scan(nil); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil vector, got %v", v)
	}
}
