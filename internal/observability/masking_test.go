package observability

import "testing"

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"reader@example.com", "r***r@example.com"},
		{"ab@example.com", "**@example.com"},
		{"a@example.com", "**@example.com"},
		{"not-an-email", "****"},
		{"", "****"},
	}

	for _, tt := range tests {
		if got := MaskEmail(tt.email); got != tt.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"0123456789abcdef", "01234567..."},
		{"short", "********"},
		{"", "********"},
	}

	for _, tt := range tests {
		if got := MaskToken(tt.token); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}
