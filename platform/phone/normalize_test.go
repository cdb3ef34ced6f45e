package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"local indonesian mobile", "081234567890", "+6281234567890"},
		{"already e164", "+6281234567890", "+6281234567890"},
		{"with spaces and dashes", "0812-3456-7890", "+6281234567890"},
		{"invalid stays trimmed", "  not a number  ", "not a number"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.input); got != tt.want {
				t.Fatalf("NormalizeE164(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
