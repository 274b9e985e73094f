package util

import "testing"

func TestHashSessionKeyStable(t *testing.T) {
	a := HashSessionKey("session-token-1")
	b := HashSessionKey("session-token-1")
	if a != b {
		t.Fatalf("expected stable hash, got %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashSessionKey("session-token-2") {
		t.Fatalf("expected distinct hashes for distinct tokens")
	}
}

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected traversal rejection")
	}
	got, err := SanitizeFileName("  my/bill.pdf ")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if got != "my_bill.pdf" {
		t.Fatalf("unexpected sanitized name: %q", got)
	}
}
