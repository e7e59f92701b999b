package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if hash == "password1" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := CheckPassword(hash, "password1"); err != nil {
		t.Errorf("check rejected the right password: %v", err)
	}

	if err := CheckPassword(hash, "password2"); err == nil {
		t.Error("check accepted the wrong password")
	}
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	tests := []struct {
		name string
		cost int
	}{
		{name: "zero", cost: 0},
		{name: "negative", cost: -3},
		{name: "above_max", cost: bcrypt.MaxCost + 1},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword("password1", tt.cost)

			if err != nil {
				t.Fatalf("hash failed: %v", err)
			}

			if err := CheckPassword(hash, "password1"); err != nil {
				t.Fatalf("check rejected the hash: %v", err)
			}
		})
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("password1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	b, err := HashPassword("password1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if a == b {
		t.Fatal("two hashes of the same password should differ")
	}
}
