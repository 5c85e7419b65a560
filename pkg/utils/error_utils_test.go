package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"11999990000", "11999990000"},
		{"(11) 99999-0000", "11999990000"},
		{"+55 11 99999 0000", "5511999990000"},
		{"11.99999.0000", "11999990000"},
		{"", ""},
	}

	for _, tt := range cases {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Fatalf("NormalizePhone(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	for _, valid := range []string{"user@example.com", "First.Last@sub.domain.org", "a+b@test.io"} {
		if !IsValidEmail(valid) {
			t.Fatalf("IsValidEmail(%q) rejected a valid address", valid)
		}
	}
	for _, invalid := range []string{"", "user", "user@", "@example.com", "user@example"} {
		if IsValidEmail(invalid) {
			t.Fatalf("IsValidEmail(%q) accepted an invalid address", invalid)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty("") || !IsEmpty("   ") || !IsEmpty("\t\n") {
		t.Fatal("expected whitespace-only strings to be empty")
	}
	if IsEmpty("x") || IsEmpty(" x ") {
		t.Fatal("expected non-blank strings to be non-empty")
	}
}
