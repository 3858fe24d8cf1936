package security

import "testing"

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("secret-key")

	token, err := g.GenerateToken("session-abc")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if !g.ValidateToken("session-abc", token) {
		t.Error("ValidateToken() rejected its own token")
	}

	if g.ValidateToken("session-other", token) {
		t.Error("ValidateToken() accepted token for a different session")
	}

	if g.ValidateToken("session-abc", token+"x") {
		t.Error("ValidateToken() accepted a tampered token")
	}

	if g.ValidateToken("", token) {
		t.Error("ValidateToken() accepted empty session")
	}

	if _, err := g.GenerateToken(""); err == nil {
		t.Error("GenerateToken() should fail for empty session")
	}
}

func TestCSRFTokensDifferAcrossSecrets(t *testing.T) {
	a := NewCSRFGenerator("secret-a")
	b := NewCSRFGenerator("secret-b")

	tokenA, _ := a.GenerateToken("session")
	tokenB, _ := b.GenerateToken("session")

	if tokenA == tokenB {
		t.Error("different secrets should produce different tokens")
	}
}
