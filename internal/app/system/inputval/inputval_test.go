package inputval

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	type TestInput struct {
		Name   string  `validate:"required,max=10" label:"Full name"`
		Rating float64 `validate:"required,gte=0.5,lte=5,halfstep" label:"Rating"`
	}

	tests := []struct {
		name       string
		input      TestInput
		wantErrors bool
		wantFirst  string
	}{
		{
			name:  "valid input",
			input: TestInput{Name: "John", Rating: 4.5},
		},
		{
			name:       "missing name",
			input:      TestInput{Rating: 3},
			wantErrors: true,
			wantFirst:  "Full name is required.",
		},
		{
			name:       "name too long",
			input:      TestInput{Name: "VeryLongNameThatExceedsLimit", Rating: 3},
			wantErrors: true,
			wantFirst:  "Full name must be at most 10 characters.",
		},
		{
			name:       "zero rating",
			input:      TestInput{Name: "John"},
			wantErrors: true,
			wantFirst:  "Rating is required.",
		},
		{
			name:       "rating not a half step",
			input:      TestInput{Name: "John", Rating: 4.2},
			wantErrors: true,
			wantFirst:  "Rating must be a multiple of 0.5.",
		},
		{
			name:       "rating above range",
			input:      TestInput{Name: "John", Rating: 5.5},
			wantErrors: true,
			wantFirst:  "Rating must be at most 5.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)

			if result.HasErrors() != tt.wantErrors {
				t.Errorf("Validate() HasErrors = %v, want %v (%s)", result.HasErrors(), tt.wantErrors, result.All())
			}
			if tt.wantErrors && result.First() != tt.wantFirst {
				t.Errorf("Validate() First() = %q, want %q", result.First(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_CountsCharactersNotBytes(t *testing.T) {
	type In struct {
		Text string `validate:"max=5" label:"Text"`
	}
	if r := Validate(In{Text: "ééééé"}); r.HasErrors() {
		t.Errorf("5 two-byte characters should pass: %s", r.All())
	}
	if r := Validate(In{Text: "éééééé"}); !r.HasErrors() {
		t.Error("6 characters should fail")
	}
}

func TestValidate_PlainText(t *testing.T) {
	type In struct {
		Text string `validate:"max=500,plaintext" label:"Review text"`
	}
	for _, ok := range []string{"", "Great club", "Arts & Crafts", "I <3 it", "2 > 1"} {
		if r := Validate(In{Text: ok}); r.HasErrors() {
			t.Errorf("%q should pass: %s", ok, r.All())
		}
	}
	for _, bad := range []string{
		"<b>Great</b> club",
		"&lt;script&gt;alert(1)&lt;/script&gt; nice club",
		"I rate x<y and y>z highly",
	} {
		r := Validate(In{Text: bad})
		if !r.HasErrors() {
			t.Errorf("%q should fail", bad)
			continue
		}
		if want := "Review text must be plain text without HTML or angle-bracket markup."; r.First() != want {
			t.Errorf("message = %q, want %q", r.First(), want)
		}
	}
}

func TestResult_AllAndFields(t *testing.T) {
	r := &Result{Errors: []FieldError{
		{Field: "A", Message: "Error 1"},
		{Field: "A", Message: "Error 2"},
		{Field: "B", Message: "Error 3"},
	}}
	if got := r.All(); got != "Error 1; Error 2; Error 3" {
		t.Errorf("All() = %q", got)
	}
	f := r.Fields()
	if f["A"] != "Error 1" || f["B"] != "Error 3" {
		t.Errorf("Fields() = %v", f)
	}
	if (&Result{}).First() != "" {
		t.Error("First() on empty result should be empty")
	}
}

func TestIsHalfStep(t *testing.T) {
	tests := []struct {
		in   float64
		want bool
	}{
		{0.5, true},
		{1, true},
		{4.5, true},
		{5, true},
		{4.2, false},
		{0.25, false},
	}
	for _, tt := range tests {
		if got := IsHalfStep(tt.in); got != tt.want {
			t.Errorf("IsHalfStep(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidObjectID(t *testing.T) {
	if !IsValidObjectID("507f1f77bcf86cd799439011") {
		t.Error("expected valid ObjectID")
	}
	if IsValidObjectID("invalid-id") {
		t.Error("expected invalid ObjectID")
	}
}

func TestClamp(t *testing.T) {
	long := strings.Repeat("a", 501)
	if got := Clamp(long, 500); RuneLen(got) != 500 {
		t.Errorf("Clamp length = %d, want 500", RuneLen(got))
	}
	if got := Clamp("héllo", 2); got != "hé" {
		t.Errorf("Clamp = %q, want %q", got, "hé")
	}
	if got := Clamp("abc", 10); got != "abc" {
		t.Errorf("Clamp should leave short input alone, got %q", got)
	}
}
