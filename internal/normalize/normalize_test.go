package normalize

import "testing"

func TestNormalize_LeetSubstitutions(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"m3al pl4n f0r th3 w33k", "meal plan for the week"},
		{"br34kf4st ideas", "breakfast ideas"},
		{"s3xy", "sexy"},
		{"p0rn", "porn"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_PureNumbersUntouched(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"150 grams of protein", "150 grams of protein"},
		{"budget 300 per day", "budget 300 per day"},
		{"2026", "2026"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_CollapsesRepeats(t *testing.T) {
	if got := Normalize("heyyyy sooooo hungry"); got != "heyy soo hungry" {
		t.Errorf("got %q", got)
	}
}

func TestNormalize_Debridge(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"m-e-a-l plan", "meal plan"},
		{"m*al plan", "meal plan"},
		{"p*rn", "porn"},
		// Legitimate punctuation survives: the stripped form matches nothing.
		{"gluten-free food", "gluten-free food"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_ScopedTypoFix(t *testing.T) {
	// Fix applies only next to diet-context vocabulary.
	if got := Normalize("diet for this weak"); got != "diet for this weak" {
		t.Errorf("out-of-context typo was corrected: %q", got)
	}
	if got := Normalize("meal plan weak"); got != "meal plan week" {
		t.Errorf("in-context typo not corrected: %q", got)
	}
	if got := Normalize("brekfast menu"); got != "breakfast menu" {
		t.Errorf("got %q", got)
	}
}

func TestHyper_UnconditionalTypoFix(t *testing.T) {
	if got := Hyper("diet for this weak"); got != "diet for this week" {
		t.Errorf("got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"m3al pl4n f0r th3 w33k",
		"  Breakfast   Ideas  ",
		"heyyyy",
		"m-e-a-l plan for the week",
		"high protein vegetarian dinner under 100 rupees",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestKey_NormalizesCaseAndWhitespace(t *testing.T) {
	if Key("  Breakfast Ideas  ") != Key("breakfast ideas") {
		t.Errorf("keys differ: %q vs %q", Key("  Breakfast Ideas  "), Key("breakfast ideas"))
	}
}
