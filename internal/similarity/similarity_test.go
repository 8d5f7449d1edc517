package similarity

import (
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{
			name: "identical",
			a:    "region",
			b:    "region",
			want: 100,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: 100,
		},
		{
			name: "one empty",
			a:    "region",
			b:    "",
			want: 0,
		},
		{
			name: "single substitution",
			a:    "woreda",
			b:    "wereda",
			want: 83,
		},
		{
			name: "transposition costs two edits",
			a:    "region",
			b:    "regoin",
			want: 67,
		},
		{
			name: "short string single edit",
			a:    "zone",
			b:    "zane",
			want: 75,
		},
		{
			name: "plural versus singular",
			a:    "health facilities",
			b:    "health facility",
			want: 82,
		},
		{
			name: "amharic runes not bytes",
			a:    "አበባ",
			b:    "አበብ",
			want: 67,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Ratio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}

			// Symmetric by construction.
			if rev := Ratio(tt.b, tt.a); rev != got {
				t.Errorf("Ratio(%q, %q) = %d, not symmetric with %d", tt.b, tt.a, rev, got)
			}
		})
	}
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{
			name: "word order ignored",
			a:    "north showa",
			b:    "Showa North",
			want: 100,
		},
		{
			name: "repeated tokens ignored",
			a:    "gondar gondar north",
			b:    "north gondar",
			want: 100,
		},
		{
			name: "case and punctuation folded",
			a:    "Addis-Ababa",
			b:    "addis ababa",
			want: 100,
		},
		{
			name: "subset scores full",
			a:    "addis ababa",
			b:    "addis",
			want: 100,
		},
		{
			name: "underscore delimited keys",
			a:    "oromia_east shewa",
			b:    "east shewa_oromia",
			want: 100,
		},
		{
			name: "typo in one token",
			a:    "oromia east shewa",
			b:    "oromia east showa",
			want: 94,
		},
		{
			name: "no shared tokens",
			a:    "abc",
			b:    "xyz",
			want: 0,
		},
		{
			name: "blank keys never match each other",
			a:    "",
			b:    "",
			want: 0,
		},
		{
			name: "one side blank after normalization",
			a:    "---",
			b:    "bole",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenSetRatio(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("TokenSetRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}

			if rev := TokenSetRatio(tt.b, tt.a); rev != got {
				t.Errorf("TokenSetRatio(%q, %q) = %d, not symmetric with %d", tt.b, tt.a, rev, got)
			}

			if got < 0 || got > 100 {
				t.Errorf("TokenSetRatio(%q, %q) = %d, outside [0,100]", tt.a, tt.b, got)
			}
		})
	}
}

func TestJaroWinklerBounds(t *testing.T) {
	if got := JaroWinkler("adama", "adama"); got != 1.0 {
		t.Errorf("JaroWinkler(identical) = %f, want 1.0", got)
	}
	if got := JaroWinkler("adama", "xq"); got < 0 || got > 1 {
		t.Errorf("JaroWinkler out of range: %f", got)
	}
}
