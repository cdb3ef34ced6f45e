package token

import "testing"

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == "" || a == b {
		t.Fatal("expected distinct non-empty tokens")
	}
}

func TestHashSHA256(t *testing.T) {
	h1 := HashSHA256("refresh-token")
	h2 := HashSHA256("refresh-token")
	if h1 != h2 {
		t.Fatal("hash must be deterministic")
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
	if h1 == HashSHA256("other-token") {
		t.Fatal("distinct tokens must hash differently")
	}
}
