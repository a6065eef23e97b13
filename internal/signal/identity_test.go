package signal

import (
	"strings"
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("https://example.com/post")
	b := Fingerprint("https://example.com/post")
	if a != b {
		t.Fatalf("same URL should fingerprint identically: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("fingerprint should be 16 hex chars, got %d", len(a))
	}
}

func TestFingerprintIgnoresSurroundingWhitespace(t *testing.T) {
	if Fingerprint("  https://example.com/post \n") != Fingerprint("https://example.com/post") {
		t.Fatalf("surrounding whitespace should not change the fingerprint")
	}
}

func TestFingerprintDistinguishesURLs(t *testing.T) {
	if Fingerprint("https://example.com/a") == Fingerprint("https://example.com/b") {
		t.Fatalf("different URLs should not collide")
	}
}

func TestDeriveDraftID(t *testing.T) {
	if got := DeriveDraftID("abc123", 1); got != "abc123_v1" {
		t.Fatalf("expected abc123_v1, got %s", got)
	}
	if got := DeriveDraftID("repo/name", 2); got != "repo_name_v2" {
		t.Fatalf("slashes should be replaced, got %s", got)
	}
	if got := DeriveDraftID(`a\b`, 1); got != "a_b_v1" {
		t.Fatalf("backslashes should be replaced, got %s", got)
	}
}

func TestNewRunIDShape(t *testing.T) {
	id := NewRunID()
	if !strings.HasPrefix(id, "run_") {
		t.Fatalf("run id should start with run_, got %s", id)
	}
	parts := strings.Split(id, "_")
	if len(parts) != 4 {
		t.Fatalf("expected run_<date>_<time>_<suffix>, got %s", id)
	}
	if len(parts[1]) != 8 || len(parts[2]) != 6 || len(parts[3]) != 8 {
		t.Fatalf("unexpected segment lengths in %s", id)
	}
	if id == NewRunID() {
		t.Fatalf("consecutive run ids should differ")
	}
}
