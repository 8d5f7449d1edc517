package normalize

import (
	"reflect"
	"testing"
)

func TestValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase and trim",
			input: "  Addis Ababa  ",
			want:  "addis ababa",
		},
		{
			name:  "collapse internal whitespace",
			input: "north\t gondar   zone",
			want:  "north gondar zone",
		},
		{
			name:  "punctuation becomes separator",
			input: "Debre-Birhan/Town",
			want:  "debre birhan town",
		},
		{
			name:  "apostrophe dropped",
			input: "K'ebele 04",
			want:  "k ebele 04",
		},
		{
			name:  "punctuation only",
			input: "---...///",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "   \t ",
			want:  "",
		},
		{
			name:  "digits kept",
			input: "Health Post 12",
			want:  "health post 12",
		},
		{
			name:  "amharic letters kept",
			input: "አዲስ አበባ",
			want:  "አዲስ አበባ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Value(tt.input)
			if got != tt.want {
				t.Errorf("Value(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Normalization is idempotent.
			again := Value(got)
			if again != got {
				t.Errorf("Value not idempotent: Value(%q) = %q", got, again)
			}
		})
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "underscores become spaces",
			input: "Health_Facilities",
			want:  "health facilities",
		},
		{
			name:  "hyphens become spaces",
			input: "woreda-name",
			want:  "woreda name",
		},
		{
			name:  "mixed case header",
			input: "REGION",
			want:  "region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Header(tt.input); got != tt.want {
				t.Errorf("Header(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple split",
			input: "North Gondar",
			want:  []string{"north", "gondar"},
		},
		{
			name:  "punctuation separated",
			input: "Bahir-Dar",
			want:  []string{"bahir", "dar"},
		},
		{
			name:  "blank yields nil",
			input: "  ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokens(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenSet(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "dedup and sort",
			input: "gondar north gondar",
			want:  []string{"gondar", "north"},
		},
		{
			name:  "order does not matter",
			input: "zone north gondar",
			want:  []string{"gondar", "north", "zone"},
		},
		{
			name:  "blank yields nil",
			input: "...",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenSet(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TokenSet(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" -- ") {
		t.Error("IsBlank(\" -- \") = false, want true")
	}
	if IsBlank("Afar") {
		t.Error("IsBlank(\"Afar\") = true, want false")
	}
}
