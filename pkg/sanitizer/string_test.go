package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Alpine Tours", "Alpine Tours"},
		{"leading and trailing", "  Alpine Tours  ", "Alpine Tours"},
		{"internal runs", "Alpine   \t Tours", "Alpine Tours"},
		{"empty", "", ""},
		{"only whitespace", "   \n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Booking@Alpine.Example "); got != "booking@alpine.example" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+41 79 123-45-67", "+41791234567"},
		{"(079) 123.45.67", "0791234567"},
		{"", ""},
		{"+41x79", "+41x79"},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.input); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeDestinations(t *testing.T) {
	got := NormalizeDestinations([]string{" Zurich ", "", "  ", "St.  Moritz"})
	want := []string{"Zurich", "St. Moritz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeDestinations = %v, want %v", got, want)
	}

	if NormalizeDestinations(nil) != nil {
		t.Error("nil input should stay nil")
	}
}
