package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "tertarik karpet permadani", "tertarik karpet permadani"},
		{"strips tags", "<b>penting</b> hubungi besok", "penting hubungi besok"},
		{"strips script", `<script>alert("x")</script>catat`, `alert("x")catat`},
		{"encoded tag stripped after decode", "&lt;img src=x&gt;halo", "halo"},
		{"trims whitespace", "  catatan  ", "catatan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Fatalf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("nil must pass through")
	}

	raw := "<i>notes</i>"
	got := TextPtr(&raw)
	if got == nil || *got != "notes" {
		t.Fatalf("expected sanitized pointer, got %v", got)
	}
}
