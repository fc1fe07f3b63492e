package normalization

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"JavaScript Fundamentals", "javascript-fundamentals"},
		{"C++ & Friends!", "c-friends"},
		{"  React   Components  ", "react-components"},
		{"already-a-slug", "already-a-slug"},
		{"Mixed  CASE -- Title", "mixed-case-title"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Fatalf("Slugify(%q): want=%q got=%q", tc.title, tc.want, got)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"demo@example.com", "a.b@mail.co", "user-1@sub.domain.org"}
	invalid := []string{"", "nope", "@example.com", "user@", "user@domain"}
	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Fatalf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Fatalf("expected %q to be invalid", e)
		}
	}
}

func TestIsValidHexColor(t *testing.T) {
	if !IsValidHexColor("#2563eb") || !IsValidHexColor("#FFAA00") {
		t.Fatalf("expected hex colors to validate")
	}
	if IsValidHexColor("2563eb") || IsValidHexColor("#25e") || IsValidHexColor("#25e63g") {
		t.Fatalf("expected malformed colors to fail")
	}
}
