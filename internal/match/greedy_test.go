package match

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	m := NewMatcher(DefaultThresholds(), nil)

	tests := []struct {
		name        string
		left, right []string
		wantPairs   []Pair
		wantLeft    []int
		wantRight   []int
	}{
		{
			name:      "exact keys match at 100",
			left:      []string{"addis ababa_bole"},
			right:     []string{"addis ababa_bole"},
			wantPairs: []Pair{{LeftIndex: 0, RightIndex: 0, Score: 100}},
			wantLeft:  []int{},
			wantRight: []int{},
		},
		{
			name:      "disjoint keys stay unmatched on both sides",
			left:      []string{"tigray_mekelle"},
			right:     []string{"somali_jigjiga"},
			wantPairs: []Pair{},
			wantLeft:  []int{0},
			wantRight: []int{0},
		},
		{
			name:      "blank keys never match, not even each other",
			left:      []string{"", "oromia_adama"},
			right:     []string{""},
			wantPairs: []Pair{},
			wantLeft:  []int{0, 1},
			wantRight: []int{0},
		},
		{
			name:      "collision resolves for the earlier query",
			left:      []string{"oromia_adama", "oromia_adama"},
			right:     []string{"oromia_adama"},
			wantPairs: []Pair{{LeftIndex: 0, RightIndex: 0, Score: 100}},
			wantLeft:  []int{1},
			wantRight: []int{},
		},
		{
			// The second query's best candidate is taken, and the
			// available second-best is never considered.
			name:      "claimed winner leaves no fallback",
			left:      []string{"amhara_bahir dar", "amhara_bahirdar"},
			right:     []string{"amhara_bahir dar", "amhara_bahir darr"},
			wantPairs: []Pair{{LeftIndex: 0, RightIndex: 0, Score: 100}},
			wantLeft:  []int{1},
			wantRight: []int{1},
		},
		{
			name:      "no queries leaves the whole pool unmatched",
			left:      []string{},
			right:     []string{"oromia_adama", "amhara_dessie"},
			wantPairs: []Pair{},
			wantLeft:  []int{},
			wantRight: []int{0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.Match(tt.left, tt.right)
			if !reflect.DeepEqual(res.Pairs, tt.wantPairs) {
				t.Errorf("Pairs = %v, want %v", res.Pairs, tt.wantPairs)
			}
			if !reflect.DeepEqual(res.UnmatchedLeft, tt.wantLeft) {
				t.Errorf("UnmatchedLeft = %v, want %v", res.UnmatchedLeft, tt.wantLeft)
			}
			if !reflect.DeepEqual(res.UnmatchedRight, tt.wantRight) {
				t.Errorf("UnmatchedRight = %v, want %v", res.UnmatchedRight, tt.wantRight)
			}
			if res.EmptyPool {
				t.Error("EmptyPool = true for a non-empty pool")
			}
		})
	}
}

func TestMatchNormalizedEquivalence(t *testing.T) {
	// Keys built from "Addis Ababa"/"Bole" and "addis ababa"/"bole "
	// normalize identically, so the pair scores 100.
	left := []string{KeyFromValues("Addis Ababa", "Bole")}
	right := []string{KeyFromValues("addis ababa", "bole ")}

	res := NewMatcher(DefaultThresholds(), nil).Match(left, right)
	want := []Pair{{LeftIndex: 0, RightIndex: 0, Score: 100}}
	if !reflect.DeepEqual(res.Pairs, want) {
		t.Errorf("Pairs = %v, want %v", res.Pairs, want)
	}
}

func TestMatchExactPairSurvivesMaxThreshold(t *testing.T) {
	cfg := DefaultThresholds()
	cfg.Primary = 100

	res := NewMatcher(cfg, nil).Match([]string{"oromia_adama"}, []string{"oromia_adama"})
	if len(res.Pairs) != 1 || res.Pairs[0].Score != 100 {
		t.Fatalf("Pairs = %v, want one pair at score 100", res.Pairs)
	}
}

func TestMatchEmptyPool(t *testing.T) {
	res := NewMatcher(DefaultThresholds(), nil).Match([]string{"a_b", "c_d"}, nil)

	if !res.EmptyPool {
		t.Error("EmptyPool = false, want true")
	}
	if len(res.Pairs) != 0 {
		t.Errorf("Pairs = %v, want none", res.Pairs)
	}
	if want := []int{0, 1}; !reflect.DeepEqual(res.UnmatchedLeft, want) {
		t.Errorf("UnmatchedLeft = %v, want %v", res.UnmatchedLeft, want)
	}
}

func TestMatchPartitionInvariant(t *testing.T) {
	left := []string{
		"oromia_adama_hc",
		"amhara_dessie_hc",
		"oromia_adama_hc",
		"tigray_axum_hc",
		"snnpr_hawassa_hc",
	}
	right := []string{
		"oromia_adama_hc",
		"amhara_desie_hc",
		"sidama_yirgalem_hc",
		"snnpr_hawassa_hc",
	}

	res := NewMatcher(DefaultThresholds(), nil).Match(left, right)

	wantPairs := []Pair{
		{LeftIndex: 0, RightIndex: 0, Score: 100},
		{LeftIndex: 1, RightIndex: 1, Score: 94},
		{LeftIndex: 4, RightIndex: 3, Score: 100},
	}
	if !reflect.DeepEqual(res.Pairs, wantPairs) {
		t.Errorf("Pairs = %v, want %v", res.Pairs, wantPairs)
	}

	if got := len(res.Pairs) + len(res.UnmatchedLeft); got != len(left) {
		t.Errorf("left partition: %d pairs + %d unmatched = %d, want %d",
			len(res.Pairs), len(res.UnmatchedLeft), got, len(left))
	}
	if got := len(res.Pairs) + len(res.UnmatchedRight); got != len(right) {
		t.Errorf("right partition: %d pairs + %d unmatched = %d, want %d",
			len(res.Pairs), len(res.UnmatchedRight), got, len(right))
	}

	seen := make(map[int]bool)
	for _, p := range res.Pairs {
		if seen[p.RightIndex] {
			t.Errorf("right index %d claimed twice", p.RightIndex)
		}
		seen[p.RightIndex] = true
		if p.Score < DefaultThresholds().Primary {
			t.Errorf("accepted pair %v below threshold", p)
		}
	}
}
