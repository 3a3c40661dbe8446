package classifier

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsTragedyKeywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title string
		want  bool
	}{
		{"Deadly storm hits coast", true},
		{"DEADLY virus spreads", true},
		{"Cyber attack disrupts services", true},
		{"Plane crash in mountains", true},
		{"Gas explosion in residential building", true},
		{"Major earthquake predicted", true},
		{"Flood warnings issued", true},
		{"Natural disaster declared", true},
		{"Historic massacre remembered", true},
		{"Community mourns tragedy", true},
		{"Police investigate shooting", true},
		{"DeAdLy storm approaches", true},
		{"Breaking: Deadly hurricane makes landfall in Florida", true},
		{"Stock market reaches new high", false},
		{"Local team wins championship", false},
		{"New restaurant opens downtown", false},
		{"Weather forecast: Sunny skies ahead", false},
	}

	for _, tc := range cases {
		if got := IsTragedy(tc.title); got != tc.want {
			t.Errorf("IsTragedy(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}

// Matching is by substring, not word boundary.
func TestIsTragedySubstringMatch(t *testing.T) {
	t.Parallel()

	for _, title := range []string{
		"Attacking the problem head-on",
		"Crash course in programming",
		"Flooding the market with products",
	} {
		if !IsTragedy(title) {
			t.Errorf("IsTragedy(%q) = false, want true", title)
		}
	}
}

func TestIsTragedyBlank(t *testing.T) {
	t.Parallel()

	for _, title := range []string{"", "   ", "\n\t"} {
		if IsTragedy(title) {
			t.Errorf("IsTragedy(%q) = true, want false", title)
		}
	}
}

func TestNewNormalizesKeywords(t *testing.T) {
	t.Parallel()

	k := New([]string{"  Wildfire ", "", "AVALANCHE"})
	if diff := cmp.Diff([]string{"wildfire", "avalanche"}, k.Keywords()); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
	if !k.IsTragedy("Wildfires spread north") {
		t.Fatal("expected custom keyword to match")
	}
	if k.IsTragedy("Deadly storm") {
		t.Fatal("default keywords must not apply when custom ones are set")
	}

	if diff := cmp.Diff(DefaultKeywords, New(nil).Keywords()); diff != "" {
		t.Fatalf("empty list should fall back to defaults (-want +got):\n%s", diff)
	}
}
