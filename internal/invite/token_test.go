package invite

import (
	"strings"
	"testing"
)

// =============================================================================
// Invitation Token Tests
// =============================================================================

func TestGenerate(t *testing.T) {
	token, hash, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}
	if !ValidFormat(token) {
		t.Errorf("generated token %q failed ValidFormat", token)
	}
	if hash != Hash(token) {
		t.Error("returned hash does not match Hash(token)")
	}
	if hash == token {
		t.Error("hash must differ from raw token")
	}
}

func TestGenerateIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, _, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestHashIsDeterministic(t *testing.T) {
	token := strings.Repeat("ab", 32)
	if Hash(token) != Hash(token) {
		t.Error("Hash should be deterministic")
	}
	if Hash(token) == Hash(strings.Repeat("ba", 32)) {
		t.Error("different tokens should hash differently")
	}
}

func TestValidFormat(t *testing.T) {
	testCases := []struct {
		name  string
		token string
		valid bool
	}{
		{"valid", strings.Repeat("0f", 32), true},
		{"empty", "", false},
		{"too short", strings.Repeat("0f", 31), false},
		{"too long", strings.Repeat("0f", 33), false},
		{"uppercase", strings.Repeat("0F", 32), false},
		{"not hex", strings.Repeat("zz", 32), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidFormat(tc.token); got != tc.valid {
				t.Errorf("ValidFormat(%q) = %v, want %v", tc.token, got, tc.valid)
			}
		})
	}
}
