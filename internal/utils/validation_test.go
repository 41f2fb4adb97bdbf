package utils

import "testing"

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{
			name:  "already normalized",
			email: "reader@example.com",
			want:  "reader@example.com",
		},
		{
			name:  "mixed case",
			email: "Reader@Example.COM",
			want:  "reader@example.com",
		},
		{
			name:  "surrounding whitespace",
			email: "  reader@example.com \n",
			want:  "reader@example.com",
		},
		{
			name:  "empty",
			email: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEmail(tt.email); got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "plain address", email: "reader@example.com", want: true},
		{name: "plus tag", email: "reader+tag@example.com", want: true},
		{name: "missing at", email: "reader.example.com", want: false},
		{name: "missing domain", email: "reader@", want: false},
		{name: "display name form", email: "Reader <reader@example.com>", want: false},
		{name: "empty", email: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{name: "simple", username: "reader_01", want: true},
		{name: "minimum length", username: "abc", want: true},
		{name: "maximum length", username: "a2345678901234567890123456789012", want: true},
		{name: "too short", username: "ab", want: false},
		{name: "too long", username: "a23456789012345678901234567890123", want: false},
		{name: "spaces", username: "bad name", want: false},
		{name: "symbols", username: "bad!name", want: false},
		{name: "empty", username: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidUsername(tt.username); got != tt.want {
				t.Errorf("IsValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}
